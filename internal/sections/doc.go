// Package sections names the steps of the data-entry wizard and routes
// validation field paths to them.
//
// Section identifiers form a closed, totally ordered set: recounted,
// voters_votes_counts, differences_counts, one political_group_votes_<N> per
// list, and save. Order depends on the number of lists, so callers obtain it
// through Order rather than hard-coding indices.
package sections
