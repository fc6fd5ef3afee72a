package cache

import "strings"

// Cache key vocabulary. Adding a cached resource means adding a name here,
// never passing a raw string literal at the call site.
const (
	KeyDashboard      = "dashboard"
	KeyClasses        = "classes"
	KeyClassSchedule  = "class_schedule"
	KeyBookings       = "bookings"
	KeyInvoices       = "invoices"
	KeyPaymentMethods = "payment_methods"
	KeyCheckIns       = "check_ins"
	KeyMessages       = "messages"
	KeyConversations  = "conversations"
	KeyProfile        = "profile"
	KeyMembership     = "membership"
	KeyNotifications  = "notifications"

	// KeyAppConfig is tenant-scoped, not user-scoped, and survives ClearUser.
	KeyAppConfig = "app_config"

	// KeyLeaderboard is the namespace of every leaderboard variant.
	KeyLeaderboard = "leaderboard"
)

// LeaderboardKey builds the key of one leaderboard filter variant,
// e.g. LeaderboardKey("weekly", "checkins") -> "leaderboard:weekly:checkins".
func LeaderboardKey(params ...string) string {
	if len(params) == 0 {
		return KeyLeaderboard
	}
	return KeyLeaderboard + ":" + strings.Join(params, ":")
}
