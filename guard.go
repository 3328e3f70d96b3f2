package gofeed

import "github.com/aloks98/gofeed/store"

// AssertOwner fails with Forbidden unless actingUserID owns the referenced record.
// Identifiers are compared as opaque strings.
func AssertOwner(owner store.CreatorRef, actingUserID string) error {
	if actingUserID == "" || owner.OwnerID() != actingUserID {
		return NewError(CodeForbidden, "User not authorized to change this post.", nil)
	}
	return nil
}
