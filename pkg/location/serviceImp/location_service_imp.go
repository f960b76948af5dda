package serviceImp

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/apperr"
	"watersync/pkg/detailform"
	"watersync/pkg/forms"
	"watersync/pkg/location"
	repo "watersync/pkg/location/repository"
	"watersync/pkg/location/service"
)

type locationSvc struct {
	r   repo.LocationRepository
	now func() time.Time
}

func NewLocationService(r repo.LocationRepository) service.LocationService {
	return &locationSvc{r: r, now: time.Now}
}

func (s *locationSvc) Create(ctx context.Context, tx *gorm.DB, l *entities.Location, userID uint) error {
	if userID != 0 {
		l.AddedByID = &userID
	}
	return s.r.WithTx(tx).Create(ctx, l)
}

func (s *locationSvc) Update(ctx context.Context, tx *gorm.DB, l, prev *entities.Location, values url.Values, userID uint) error {
	effective := s.now()
	if raw := strings.TrimSpace(values.Get("history_date")); raw != "" {
		t, err := forms.ParseTime(raw)
		if err != nil {
			return apperr.Invalid(map[string]string{"history_date": "Enter a valid date."})
		}
		effective = t
	}
	rows, err := location.Changes(prev, l)
	if err != nil {
		return err
	}
	r := s.r.WithTx(tx)
	if err := r.Save(ctx, l); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	change := uuid.NewString()
	reason := strings.TrimSpace(values.Get("history_reason"))
	for i := range rows {
		rows[i].ChangeID = change
		rows[i].Reason = reason
		rows[i].EffectiveAt = effective
		if userID != 0 {
			rows[i].ChangedByID = &userID
		}
	}
	if err := r.AppendHistory(ctx, rows); err != nil {
		return err
	}
	log.Printf("[crud] location %d: %d change(s) recorded as %s", l.ID, len(rows), change)
	return nil
}

func (s *locationSvc) Delete(ctx context.Context, tx *gorm.DB, l *entities.Location) error {
	r := s.r.WithTx(tx)
	deployments, levels, err := r.Blockers(ctx, l.ID)
	if err != nil {
		return err
	}
	switch {
	case deployments > 0:
		return apperr.Conflict("location %q has %d deployment(s); delete them first", l.Name, deployments)
	case levels > 0:
		return apperr.Conflict("location %q has %d groundwater level(s); delete them first", l.Name, levels)
	}
	return r.Delete(ctx, l)
}

func (s *locationSvc) CreateStatus(ctx context.Context, tx *gorm.DB, st *entities.LocationStatus, userID uint) error {
	if userID != 0 {
		st.CreatedByID = &userID
	}
	return s.r.WithTx(tx).CreateStatus(ctx, st)
}

func (s *locationSvc) CheckStatus(ctx context.Context, st *entities.LocationStatus) map[string]string {
	if st.VisitID == nil {
		return nil
	}
	ok, err := s.r.VisitOfLocation(ctx, st.LocationID, *st.VisitID)
	if err != nil {
		log.Printf("[crud] check status visit %d: %v", *st.VisitID, err)
		return map[string]string{"visit_id": "Could not check the visit."}
	}
	if !ok {
		return map[string]string{"visit_id": "Select a visit to this location."}
	}
	return nil
}

func (s *locationSvc) CasingTopAt(ctx context.Context, l *entities.Location, t time.Time) (*float64, error) {
	if l.Type != entities.LocationWell {
		return nil, nil
	}
	d, ok, err := detailform.Decode(location.Details, l.Type, l.Detail)
	if err != nil || !ok {
		return nil, err
	}
	well, ok := d.(*entities.WellDetail)
	if !ok {
		return nil, nil
	}
	top := well.CasingTop
	old, changed, err := s.r.ValueAt(ctx, l.ID, location.DetailPrefix+"casing_top", t)
	if err != nil || !changed {
		return top, err
	}
	if old == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(old, 64)
	if err != nil {
		return nil, nil
	}
	return &v, nil
}
