package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/Amund211/stillhere/internal/ratelimiting"
)

type windowLimiter interface {
	Do(ctx context.Context, maxOperationTime time.Duration, operation func(ctx context.Context) error) error
}

// Paced keeps the sends of a transport within the provider's rate limit
type Paced struct {
	next        Transport
	limiter     windowLimiter
	maxSendTime time.Duration
}

func NewPaced(next Transport, limiter windowLimiter, maxSendTime time.Duration) *Paced {
	return &Paced{
		next:        next,
		limiter:     limiter,
		maxSendTime: maxSendTime,
	}
}

func (p *Paced) Send(ctx context.Context, alert domain.MissedCheckInAlert) error {
	err := p.limiter.Do(ctx, p.maxSendTime, func(ctx context.Context) error {
		return p.next.Send(ctx, alert)
	})
	if errors.Is(err, ratelimiting.ErrDeadlineTooClose) {
		return fmt.Errorf("%w: %w", domain.ErrTemporarilyUnavailable, err)
	}
	return err
}
