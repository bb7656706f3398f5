package policy

import (
	"context"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
)

// CreateSpace allows any authenticated user to create a space.
func (e *Engine) CreateSpace(idc *identity.Context) error {
	return requireAuth(idc)
}

// UpdateSpace requires the actor to hold an administrative role in the space.
func (e *Engine) UpdateSpace(ctx context.Context, idc *identity.Context, space *model.Space) error {
	if err := requireAuth(idc); err != nil {
		return err
	}
	member, err := e.actingMember(ctx, idc, space.ID)
	if err != nil {
		return err
	}
	if member == nil || !member.Role.IsAdministrative() {
		return errs.Forbidden("only space owners and admins may update the space")
	}
	return nil
}

// DeleteSpace requires the actor to be the space owner.
func (e *Engine) DeleteSpace(idc *identity.Context, space *model.Space) error {
	if err := requireAuth(idc); err != nil {
		return err
	}
	if idc.ActorID() != space.OwnerID {
		return errs.Forbidden("only the space owner may delete the space")
	}
	return nil
}

// RestoreSpace is never permitted; deleted spaces stay deleted.
func (e *Engine) RestoreSpace(idc *identity.Context, space *model.Space) error {
	return errs.Forbidden("spaces cannot be restored")
}
