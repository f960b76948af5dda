package serviceImp

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/apperr"
	"watersync/pkg/forms"
	repo "watersync/pkg/waterquality/repository"
	"watersync/pkg/waterquality/service"
)

type wqSvc struct{ r repo.WaterQualityRepository }

func NewWaterQualityService(r repo.WaterQualityRepository) service.WaterQualityService {
	return &wqSvc{r}
}

func (s *wqSvc) CreateProtocol(ctx context.Context, tx *gorm.DB, p *entities.Protocol, userID uint) error {
	r := s.r.WithTx(tx)
	if entities.Slugify(p.MethodName) == "" {
		return apperr.Invalid(map[string]string{"method_name": "The method name needs at least one letter or digit."})
	}
	if err := r.CreateProtocol(ctx, p); err != nil {
		return err
	}
	if userID == 0 {
		return nil
	}
	return r.AddProtocolUser(ctx, p.ID, userID)
}

func (s *wqSvc) DeleteProtocol(ctx context.Context, tx *gorm.DB, p *entities.Protocol) error {
	return s.r.WithTx(tx).DeleteProtocol(ctx, p)
}

func (s *wqSvc) DeleteGroup(ctx context.Context, tx *gorm.DB, g *entities.ParameterGroup) error {
	return s.r.WithTx(tx).DeleteGroup(ctx, g)
}

func (s *wqSvc) CheckSample(ctx context.Context, userID uint, smp *entities.Sample) map[string]string {
	errs := map[string]string{}
	if smp.VisitID != nil {
		ok, err := s.r.VisitOfLocation(ctx, smp.LocationID, *smp.VisitID)
		switch {
		case err != nil:
			log.Printf("[crud] check sample visit %d: %v", *smp.VisitID, err)
			errs["visit_id"] = "Could not check the visit."
		case !ok:
			errs["visit_id"] = "Select a visit to this location."
		}
	}
	if smp.ProtocolID != nil {
		ok, err := s.r.ProtocolOwnedBy(ctx, *smp.ProtocolID, userID)
		switch {
		case err != nil:
			log.Printf("[crud] check sample protocol %d: %v", *smp.ProtocolID, err)
			errs["protocol_id"] = "Could not check the protocol."
		case !ok:
			errs["protocol_id"] = "Select one of your protocols."
		}
	}
	return errs
}

func (s *wqSvc) DeleteSample(ctx context.Context, tx *gorm.DB, smp *entities.Sample) error {
	return s.r.WithTx(tx).DeleteSample(ctx, smp)
}

func (s *wqSvc) BulkMeasurements(ctx context.Context, tx *gorm.DB, sampleID uint, values url.Values) (int, error) {
	params := values["parameter"]
	vals := values["value"]
	units := values["unit"]
	if len(params) == 0 {
		return 0, apperr.Invalid(map[string]string{"parameter": "Add at least one measurement."})
	}
	if len(vals) != len(params) || len(units) != len(params) {
		return 0, apperr.Invalid(map[string]string{apperr.NonField: "Every measurement needs a parameter, a value and a unit."})
	}
	measuredOn := values.Get("measured_on")

	rows := make([]entities.Measurement, 0, len(params))
	for i := range params {
		row := url.Values{
			"parameter":   {params[i]},
			"value":       {vals[i]},
			"unit":        {units[i]},
			"measured_on": {measuredOn},
		}
		m := entities.Measurement{SampleID: sampleID}
		if errs := forms.Check(row, &m); len(errs) > 0 {
			return 0, apperr.Invalid(rowErrors(i+1, errs))
		}
		rows = append(rows, m)
	}
	if err := s.r.WithTx(tx).CreateMeasurements(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// rowErrors prefixes each message with its 1-based row number.
func rowErrors(n int, errs map[string]string) map[string]string {
	out := make(map[string]string, len(errs))
	for k, msg := range errs {
		out[k] = fmt.Sprintf("Row %d: %s", n, strings.TrimSuffix(msg, "."))
	}
	return out
}
