package api

import "fmt"

// DataEntryPath is the resource path of one data entry of a polling station.
func DataEntryPath(pollingStationID int64, entryNumber int) string {
	return fmt.Sprintf("/api/polling_stations/%d/data_entries/%d", pollingStationID, entryNumber)
}

// FinalisePath is the path that finalises a data entry.
func FinalisePath(pollingStationID int64, entryNumber int) string {
	return DataEntryPath(pollingStationID, entryNumber) + "/finalise"
}
