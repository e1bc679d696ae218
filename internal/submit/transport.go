package submit

import (
	"context"

	"tally/internal/api"
)

// Transport performs the four data entry calls against the server. The
// request identifier, when present, is carried on the context.
type Transport interface {
	Load(ctx context.Context, pollingStationID int64, entryNumber int) (api.LoadResponse, error)
	Save(ctx context.Context, pollingStationID int64, entryNumber int, req api.SaveRequest) (api.SaveResponse, error)
	Delete(ctx context.Context, pollingStationID int64, entryNumber int) error
	Finalise(ctx context.Context, pollingStationID int64, entryNumber int) error
}
