package domain

import (
	"fmt"
	"time"
)

type CheckInMethod string

const (
	CheckInMethodManual     CheckInMethod = "manual"
	CheckInMethodAPI        CheckInMethod = "api"
	CheckInMethodSMS        CheckInMethod = "sms"
	CheckInMethodAutomation CheckInMethod = "automation"
)

func ParseCheckInMethod(s string) (CheckInMethod, error) {
	switch method := CheckInMethod(s); method {
	case CheckInMethodManual, CheckInMethodAPI, CheckInMethodSMS, CheckInMethodAutomation:
		return method, nil
	}
	return "", fmt.Errorf("unknown check-in method %q", s)
}

type CheckInEvent struct {
	ID         string
	UserID     string
	OccurredAt time.Time
	Method     CheckInMethod
}
