// Package alerts delivers failed-job notifications to webhooks.
//
// The sweeper reports jobs it timed out and the API reports jobs whose
// completion event carried a failure. Each notification is recorded in a
// bounded history and posted asynchronously to every configured Teams, Slack
// or generic HTTP target. Delivery errors are logged and never reach the
// caller.
package alerts
