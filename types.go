package main

// Oura API Response Types

// SleepRecord is one night of sleep as returned by /usercollection/sleep.
// Nullable upstream fields are pointers; records are never mutated after
// parsing. Durations are in seconds.
type SleepRecord struct {
	ID           string  `json:"id"`
	Day          string  `json:"day"`
	Score        *int    `json:"score"`
	Efficiency   *int    `json:"efficiency"`
	Total        *int    `json:"total"`
	Rem          *int    `json:"rem"`
	Deep         *int    `json:"deep"`
	Light        *int    `json:"light"`
	Latency      *int    `json:"latency"`
	TimeInBed    *int    `json:"time_in_bed"`
	BedtimeStart *string `json:"bedtime_start"`
	BedtimeEnd   *string `json:"bedtime_end"`
}

type sleepResponse struct {
	Data      []SleepRecord `json:"data"`
	NextToken *string       `json:"next_token,omitempty"`
}
