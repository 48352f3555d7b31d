// README: Order item validation against the product's option configuration.
package order

import (
	"github.com/google/uuid"

	"souq/internal/modules/catalog"
)

// ItemRequest is one requested line of an order before validation.
type ItemRequest struct {
	ProductID      uuid.UUID
	Quantity       int
	AddOnIDs       []uuid.UUID
	Choices        []ChoiceRequest
	SpecialRequest string
}

type ChoiceRequest struct {
	OptionGroupID uuid.UUID
	OptionID      uuid.UUID
}

// validateItem runs every check and accumulates all failures; callers get
// the complete picture of what is wrong with the item, not just the first
// problem.
func validateItem(index int, p *catalog.Product, req ItemRequest) ValidationErrors {
	var errs ValidationErrors

	if !p.IsAvailable {
		errs = append(errs, itemError(index, CodeProductUnavailable, "product %q is not available", p.Title))
	}

	for _, id := range req.AddOnIDs {
		if p.AddOnByID(id) == nil {
			errs = append(errs, itemError(index, CodeAddOnNotFound, "add-on %s does not belong to product %q", id, p.Title))
		}
	}

	// Duplicate detection keys on the option group: a group is a set of
	// mutually exclusive options, so two choices for one group are always
	// contradictory, whether or not the option differs.
	chosen := make(map[uuid.UUID]uuid.UUID, len(req.Choices))
	for _, c := range req.Choices {
		if _, dup := chosen[c.OptionGroupID]; dup {
			errs = append(errs, itemError(index, CodeDuplicateChoice, "option group %s chosen more than once", c.OptionGroupID))
			continue
		}
		chosen[c.OptionGroupID] = c.OptionID

		g := p.Group(c.OptionGroupID)
		if g == nil {
			errs = append(errs, itemError(index, CodeOptionGroupNotFound, "option group %s does not belong to product %q", c.OptionGroupID, p.Title))
			continue
		}
		if g.OptionByID(c.OptionID) == nil {
			errs = append(errs, itemError(index, CodeOptionNotFound, "option %s does not belong to group %q", c.OptionID, g.Title))
		}
	}

	// Dependency closure: groups without a rely-on are mandatory; rely-on
	// gated groups are mandatory exactly when their target pair was chosen
	// and forbidden otherwise.
	for i := range p.OptionGroups {
		g := &p.OptionGroups[i]
		_, present := chosen[g.ID]

		if g.RelyOn == nil {
			if !present {
				errs = append(errs, itemError(index, CodeMissingRequiredChoice, "option group %q requires a choice", g.Title))
			}
			continue
		}

		targetMet := chosen[g.RelyOn.GroupID] == g.RelyOn.OptionID
		switch {
		case targetMet && !present:
			errs = append(errs, itemError(index, CodeMissingRequiredChoice, "option group %q is required once its dependency is chosen", g.Title))
		case !targetMet && present:
			errs = append(errs, itemError(index, CodeUnexpectedChoice, "option group %q only applies when its dependency is chosen", g.Title))
		}
	}

	return errs
}
