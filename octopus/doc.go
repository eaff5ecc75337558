// Package octopus maps Octopus Energy API payloads into domain types.
//
// The functions here do no I/O. They take decoded response payloads (see
// AccountResponse, ConsumptionResponse and TariffRateResponse) and return
// meters, consumption and tariff rates, converting units between kWh and
// cubic metres on the way. Everything is safe for concurrent use.
package octopus
