package model

import "time"

// Wallet кошелёк учителя, создаётся при первой оплате
type Wallet struct {
	TutorID     string    `json:"tutorId"`
	Balance     int64     `json:"balance"`
	LastUpdated time.Time `json:"lastUpdated"`
}
