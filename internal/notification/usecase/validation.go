package usecase

import (
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
)

type enumRegistrar interface {
	RegisterEnum(tag string, allowed []string) error
}

// RegisterValidations adds the enum tags used by the usecase inputs.
func RegisterValidations(v enumRegistrar) error {
	enums := []struct {
		tag    string
		values []string
	}{
		{tag: "event_type", values: entity.EventTypeValues()},
		{tag: "priority", values: entity.PriorityValues()},
		{tag: "entity_type", values: entity.EntityTypeValues()},
	}

	for _, e := range enums {
		if err := v.RegisterEnum(e.tag, e.values); err != nil {
			return err
		}
	}

	return nil
}
