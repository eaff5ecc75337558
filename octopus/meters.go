package octopus

import "github.com/pkg/errors"

// MetersFromResponse flattens the meters of every property on an account.
//
// Meters are returned in payload order: property by property, electricity
// meter points before gas meter points. Properties the account holder has
// moved out of are included; check MeterPoint.Address.Active to skip them.
func MetersFromResponse(resp AccountResponse) ([]Meter, error) {
	if err := checkRequired(resp); err != nil {
		return nil, errors.Wrap(err, "account response")
	}

	var meters []Meter
	for _, property := range resp.Properties {
		address, err := addressFromProperty(property)
		if err != nil {
			return nil, errors.Wrapf(err, "property %d", property.ID)
		}

		for _, mp := range property.ElectricityMeterPoints {
			tariffs, err := tariffsFromAgreements(mp.Agreements)
			if err != nil {
				return nil, errors.Wrapf(err, "electricity meter point %s", mp.MPAN)
			}
			direction := Import
			if mp.IsExport {
				direction = Export
			}
			point := MeterPoint{ID: mp.MPAN, Address: address}
			for _, m := range mp.Meters {
				meters = append(meters, Meter{
					MeterPoint:   point,
					SerialNumber: m.SerialNumber,
					EnergyType:   Electricity,
					// The account endpoint does not say which generation a
					// meter is; both report electricity in kWh.
					Generation: SMETS1Electricity,
					Direction:  direction,
					Tariffs:    append([]Tariff(nil), tariffs...),
				})
			}
		}

		for _, mp := range property.GasMeterPoints {
			tariffs, err := tariffsFromAgreements(mp.Agreements)
			if err != nil {
				return nil, errors.Wrapf(err, "gas meter point %s", mp.MPRN)
			}
			point := MeterPoint{ID: mp.MPRN, Address: address}
			for _, m := range mp.Meters {
				meters = append(meters, Meter{
					MeterPoint:   point,
					SerialNumber: m.SerialNumber,
					EnergyType:   Gas,
					Generation:   SMETS1Gas,
					Tariffs:      append([]Tariff(nil), tariffs...),
				})
			}
		}
	}
	return meters, nil
}

func addressFromProperty(p Property) (Address, error) {
	movedIn, err := parseOptionalTimestamp(p.MovedInAt)
	if err != nil {
		return Address{}, errors.Wrap(err, "moved_in_at")
	}
	movedOut, err := parseOptionalTimestamp(p.MovedOutAt)
	if err != nil {
		return Address{}, errors.Wrap(err, "moved_out_at")
	}
	return Address{
		Line1:      p.AddressLine1,
		Line2:      p.AddressLine2,
		Line3:      p.AddressLine3,
		Town:       p.Town,
		County:     p.County,
		Postcode:   p.Postcode,
		MovedInAt:  movedIn,
		MovedOutAt: movedOut,
		Active:     movedOut == nil,
	}, nil
}

func tariffsFromAgreements(agreements []Agreement) ([]Tariff, error) {
	tariffs := make([]Tariff, 0, len(agreements))
	for _, a := range agreements {
		from, err := ParseTimestamp(a.ValidFrom)
		if err != nil {
			return nil, errors.Wrapf(err, "agreement %s valid_from", a.TariffCode)
		}
		to, err := parseOptionalTimestamp(a.ValidTo)
		if err != nil {
			return nil, errors.Wrapf(err, "agreement %s valid_to", a.TariffCode)
		}
		tariffs = append(tariffs, Tariff{Code: a.TariffCode, ValidFrom: from, ValidTo: to})
	}
	return tariffs, nil
}
