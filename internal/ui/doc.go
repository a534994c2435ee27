// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow over the authenticated session:
//  1. [StatusView] : Session state, user profile and token health
//  2. [LibraryView] : Browse the user's saved tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Session initialization and library fetches run as tea commands so the
// interface stays responsive while network calls are outstanding; a spinner
// renders while any operation is in flight.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
