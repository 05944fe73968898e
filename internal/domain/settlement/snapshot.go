package settlement

import (
	"github.com/Smilefounder/services-core/internal/domain/payment"
	"github.com/Smilefounder/services-core/internal/domain/project"
	"github.com/Smilefounder/services-core/internal/domain/subscription"
	"github.com/Smilefounder/services-core/internal/domain/user"
)

// Snapshot is everything needed to settle one payment, read in a single statement.
type Snapshot struct {
	Payment      payment.Payment
	Buyer        user.User
	Project      project.Project
	ProjectOwner user.User
	// Subscription is nil for one-off payments.
	Subscription *subscription.Subscription
}
