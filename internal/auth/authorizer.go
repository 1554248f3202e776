package auth

import (
	"fmt"

	"github.com/casbin/casbin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Wildcard matches any object or action in a policy
const Wildcard = "*"

// New loads an ACL model and policy from files
func New(model, policy string) *Authorizer {
	return &Authorizer{enforcer: casbin.NewEnforcer(model, policy)}
}

// Authorizer decides whether a certificate subject may call a method.
// Objects are gRPC service names and actions are method names.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

func (a *Authorizer) Authorize(subject, object, action string) error {
	if !a.enforcer.Enforce(subject, object, action) {
		msg := fmt.Sprintf(
			"%s not permitted to %s on %s",
			subject,
			action,
			object,
		)
		return status.New(codes.PermissionDenied, msg).Err()
	}
	return nil
}
