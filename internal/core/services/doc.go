// Package services implements the driving port interfaces.
// Services hold the question-answering logic and orchestrate
// calls to driven ports (adapters).
package services
