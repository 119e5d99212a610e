package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Australia/Sydney")
	if err != nil {
		panic(err)
	}
}

// meet dates on the federation site are published in local
// competition time, so date-window math has to happen in that
// timezone regardless of where the scraper runs
func Now() time.Time {
	return time.Now().In(Location)
}
