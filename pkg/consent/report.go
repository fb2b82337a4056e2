package consent

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrMalformedReport is returned when an analytics body is not a JSON object
// carrying both aggregate rates.
var ErrMalformedReport = errors.New("consent: malformed analytics report")

// Rate pairs a service name with its acceptance fraction.
type Rate struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

// Point is one sample of the consent rate time series.
type Point struct {
	Date        string  `json:"date"`
	ConsentRate float64 `json:"consent_rate"`
}

// Report is the aggregate analytics payload. PopularChoices keeps the key
// order of the response object.
type Report struct {
	ConsentRate     float64
	RejectionRate   float64
	PopularChoices  []Rate
	ConsentOverTime []Point
}

func (r *Report) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return ErrMalformedReport
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return ErrMalformedReport
	}
	consentRate := root.Get("consent_rate")
	rejectionRate := root.Get("rejection_rate")
	if consentRate.Type != gjson.Number || rejectionRate.Type != gjson.Number {
		return ErrMalformedReport
	}

	out := Report{
		ConsentRate:   consentRate.Float(),
		RejectionRate: rejectionRate.Float(),
	}
	root.Get("popular_choices").ForEach(func(key, value gjson.Result) bool {
		out.PopularChoices = append(out.PopularChoices, Rate{Name: key.String(), Rate: value.Float()})
		return true
	})
	root.Get("consent_over_time").ForEach(func(_, item gjson.Result) bool {
		out.ConsentOverTime = append(out.ConsentOverTime, Point{
			Date:        item.Get("date").String(),
			ConsentRate: item.Get("consent_rate").Float(),
		})
		return true
	})

	*r = out
	return nil
}
