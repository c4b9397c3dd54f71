package booking

import (
	"shutterbook/config"
)

// SchedulerConfigFromConfig builds the typed scheduler settings from the
// loaded application config.
func SchedulerConfigFromConfig(c config.Config) (SchedulerConfig, error) {
	hours, err := c.WorkingHours()
	if err != nil {
		return SchedulerConfig{}, err
	}
	profiles, err := c.Profiles()
	if err != nil {
		return SchedulerConfig{}, err
	}
	return SchedulerConfig{
		ResourceID:    c.ResourceID,
		Profiles:      profiles,
		Hours:         hours,
		Pricing:       PricingRulesFromConfig(c.Pricing),
		Step:          c.SlotStep(),
		StoreTimeout:  c.StoreTimeout(),
		NotifyTimeout: c.NotifyTimeout(),
	}, nil
}
