package config

import "time"

// Duration accepts Go duration strings ("30s", "2m") in config fields.
type Duration struct {
	Duration time.Duration
}

func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
