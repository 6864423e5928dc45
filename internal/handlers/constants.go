package handlers

// Request bodies larger than this are rejected
const maxBodyBytes = 1 << 20

const (
	MsgInvalidJSON     = "Invalid JSON body"
	MsgInvalidID       = "Invalid id"
	MsgAuthRequired    = "Authentication required"
	MsgRateLimited     = "Too many requests, please slow down"
	MsgInternalError   = "Internal server error"
	MsgMemberCreated   = "Member created successfully"
	MsgMemberUpdated   = "Member updated successfully"
	MsgMemberDeleted   = "Member deleted successfully"
	MsgMemberRemoved   = "Member permanently deleted"
	MsgMemberRestored  = "Member restored successfully"
	MsgClanCreated     = "Clan created successfully"
	MsgClanUpdated     = "Clan updated successfully"
	MsgClanDeleted     = "Clan deleted successfully"
	MsgMarriageCreated = "Marriage created successfully"
	MsgMarriageUpdated = "Marriage updated successfully"
	MsgMarriageDeleted = "Marriage deleted successfully"
)
