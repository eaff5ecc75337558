package octopus

import "github.com/pkg/errors"

// ConsumptionFromResponse maps a consumption page for meter. Consumed units
// are converted from the meter's native unit into desired; an unspecified
// desired unit leaves them as reported.
//
// A response without results is a valid empty page.
func ConsumptionFromResponse(resp ConsumptionResponse, meter Meter, desired UnitType) (Consumption, error) {
	c := Consumption{UnitType: desired, Meter: meter}
	if resp.Results == nil {
		return c, nil
	}
	if err := checkRequired(resp); err != nil {
		return Consumption{}, errors.Wrap(err, "consumption response")
	}

	native := meter.Generation.Unit()
	c.Intervals = make([]IntervalConsumption, 0, len(resp.Results))
	for i, r := range resp.Results {
		start, err := ParseTimestamp(r.IntervalStart)
		if err != nil {
			return Consumption{}, errors.Wrapf(err, "result %d interval_start", i)
		}
		end, err := ParseTimestamp(r.IntervalEnd)
		if err != nil {
			return Consumption{}, errors.Wrapf(err, "result %d interval_end", i)
		}
		c.Intervals = append(c.Intervals, IntervalConsumption{
			IntervalStart: start,
			IntervalEnd:   end,
			ConsumedUnits: Convert(*r.Consumption, native, desired),
		})
	}

	var err error
	if c.Next, err = pageReferenceFromURL(resp.Next); err != nil {
		return Consumption{}, errors.Wrap(err, "next")
	}
	if c.Previous, err = pageReferenceFromURL(resp.Previous); err != nil {
		return Consumption{}, errors.Wrap(err, "previous")
	}
	return c, nil
}
