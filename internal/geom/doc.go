// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package geom holds the kernel-ready description of a machining job. Where
// the wire model in package job is loose (strings for tags, slices of any
// length, optional payloads), the types here are closed: a Stock always has a
// known kind, an Axis always carries exactly three components per vector, and
// a Feature is one of four concrete variants.
//
// # Feature variants
//
// Feature is a sealed interface implemented by Drill, PocketRect, TurnOD and
// TurnID. Exactly one payload exists per value, so the "tag plus four
// optional payloads" shape of the wire document cannot leak past conversion.
// The variant types know nothing about the native memory layout; mapping a
// Feature onto the fixed union the kernel expects is the job of package
// payload.
package geom
