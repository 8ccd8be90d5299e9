package policy

// canUser implements the user rule table: self-service only. Ban, promote
// and impersonate have no grant path here; they belong to global admins,
// which the dispatcher already handled.
func canUser(actor *UserContext, action Action, u User) bool {
	switch action {
	case ActionUpdate, ActionDelete:
		return u.ID != "" && u.ID == actor.ID
	default:
		return false
	}
}

// canAPIKey implements the api-key rule table. A zero-ID key stands for
// creating a key or listing one's own keys, open to any authenticated actor.
func canAPIKey(actor *UserContext, action Action, k APIKey) bool {
	if k.ID == "" {
		return action == ActionCreate || action == ActionView
	}

	switch action {
	case ActionView, ActionUpdate, ActionDelete, ActionManage:
		return k.UserID != "" && k.UserID == actor.ID
	default:
		return false
	}
}
