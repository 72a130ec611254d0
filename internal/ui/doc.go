// Package ui implements a terminal preview of a running overlay using bubbletea's Elm architecture.
//
// The [Model] polls [Source.Status] on a short interval and renders the connection state, the
// current item with a progress bar, and the upcoming queue in a bubbles list. When the playback
// backend blocks autoplay the r binding is enabled and calls [Source.Resume].
//
// Messages flow through the [Msg] union. Logs must go to a file while the preview owns the terminal.
package ui
