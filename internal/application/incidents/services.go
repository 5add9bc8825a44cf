package incidents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/footprint-shield/internal/application"
	domain "github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
)

// idLayout is the timestamp part of an incident id.
const idLayout = "20060102150405"

// Service implements the incident use-cases on top of a Repository.
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

// SaveIncidentCommand carries caller-supplied fields; empty ones get defaults.
type SaveIncidentCommand struct {
	Type     string
	Platform string
	Message  string
	Severity string
	Notes    string
}

// NewID derives an incident id from t plus a random suffix so saves within
// the same second stay distinct.
func NewID(clock application.Clock) domain.IncidentID {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return domain.IncidentID(fmt.Sprintf("inc_%s_%s", clock.Now().Format(idLayout), suffix))
}

// Save stores a new incident and returns it.
func (s *Service) Save(ctx context.Context, cmd SaveIncidentCommand) (*domain.Incident, error) {
	in := &domain.Incident{
		ID:        NewID(s.Clock),
		Type:      cmd.Type,
		Platform:  cmd.Platform,
		Message:   cmd.Message,
		Severity:  cmd.Severity,
		Notes:     cmd.Notes,
		Timestamp: s.Clock.Now(),
	}
	in.ApplyDefaults()
	if err := s.Repo.Save(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// List returns every stored incident in insertion order.
func (s *Service) List(ctx context.Context) ([]*domain.Incident, error) {
	return s.Repo.List(ctx)
}

// Delete removes an incident; unknown ids are a no-op.
func (s *Service) Delete(ctx context.Context, id domain.IncidentID) error {
	return s.Repo.Delete(ctx, id)
}
