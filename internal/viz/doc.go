// Package viz renders trajectories and reports in the terminal.
//
//   - [PlotTrajectory]: one asciigraph line chart per state component
//   - [PhasePortrait]: two components against each other on a Braille [Canvas]
//   - [RenderConvergence], [RenderSummary], [RenderRuns]: lipgloss tables
//
// Colours come from [CurrentTheme]; [SetTheme] switches between the
// built-in themes.
package viz
