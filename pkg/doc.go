// Package pkg provides the libraries behind socraticboard, a whiteboard
// tutor that proposes questions and hints instead of answers.
//
// # Overview
//
// A tutor engine streams a reply and proposes annotations through a tool
// call. Each proposal becomes a pending card in the annotation registry,
// gets a screen position from the placement coordinator, and waits for the
// student. Approving a card commits it to the canvas as a colored text
// marker; dismissing it discards it.
//
//  1. [geometry] - Viewport anchors, overlap test, slot search
//  2. [annotation] - Kinds, proposals, the pending registry
//  3. [placement] - Placement passes over the registry
//  4. [resolution] - Approve and dismiss
//  5. [canvas] - Shapes, camera and SVG screenshots
//  6. [workspace] - One tutoring session, serialized under one lock
//  7. [tutor] - Anthropic, Gemini and offline engines
//  8. [server] - The JSON and SSE API
//
// # Data Flow
//
//	tutor.Engine ──proposal──▶ workspace.Propose
//	                               │
//	                     annotation.Registry.AddPending
//	                               │
//	                  placement.Coordinator.Run ──▶ geometry.Place
//	                               │
//	          student approves ──▶ resolution.Workflow.Approve ──▶ canvas.CreateText
//
// # Supporting Packages
//
//   - [cache] - Screenshot caching (file, Redis, null)
//   - [config] - TOML configuration with environment overrides
//   - [errors] - Structured error codes and validation
//   - [observability] - Hooks for placement, resolution, tutor and cache events
//   - [httputil] - Retry with backoff
//   - [session] - Workspace sessions with sliding expiry
//   - [buildinfo] - Version information
//
// [geometry]: github.com/matzehuels/socraticboard/pkg/geometry
// [annotation]: github.com/matzehuels/socraticboard/pkg/annotation
// [placement]: github.com/matzehuels/socraticboard/pkg/placement
// [resolution]: github.com/matzehuels/socraticboard/pkg/resolution
// [canvas]: github.com/matzehuels/socraticboard/pkg/canvas
// [workspace]: github.com/matzehuels/socraticboard/pkg/workspace
// [tutor]: github.com/matzehuels/socraticboard/pkg/tutor
// [server]: github.com/matzehuels/socraticboard/pkg/server
// [cache]: github.com/matzehuels/socraticboard/pkg/cache
// [config]: github.com/matzehuels/socraticboard/pkg/config
// [errors]: github.com/matzehuels/socraticboard/pkg/errors
// [observability]: github.com/matzehuels/socraticboard/pkg/observability
// [httputil]: github.com/matzehuels/socraticboard/pkg/httputil
// [session]: github.com/matzehuels/socraticboard/pkg/session
// [buildinfo]: github.com/matzehuels/socraticboard/pkg/buildinfo
package pkg
