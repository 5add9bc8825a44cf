package incidents

import "context"

// Repository persists incidents. Implementations must serialize concurrent
// writes so no save is lost. Delete of a missing id is not an error.
type Repository interface {
	Save(ctx context.Context, in *Incident) error
	List(ctx context.Context) ([]*Incident, error)
	Delete(ctx context.Context, id IncidentID) error
}

// Pinger is implemented by repositories that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
