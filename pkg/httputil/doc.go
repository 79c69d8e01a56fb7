// Package httputil provides HTTP utilities for the registry client.
//
// # Overview
//
// This package provides the transport-level infrastructure used by the
// metadata fetcher:
//
//   - [Policy]: Retry with exponential backoff, a delay cap, and jitter
//   - [RetryableError]: Marker wrapper for transient failures
//   - [AllowedHost]: Trusted-host checks for redirect-style indirections
//
// # Retry
//
// [Policy.Do] drives a retry loop for transient failures:
//
//   - Network errors and non-cancellation timeouts
//   - 408, 429, 500, 502, 503, and 504 responses
//
// The delay between attempts grows by a configurable backoff factor, is
// capped at a configurable maximum, and optionally carries ±25% random
// jitter to avoid thundering herd. [Policy.NextDelay] is a pure function of
// the attempt number so the schedule can be tested without real sleeps.
//
// Caller cancellation is never retried: the loop checks the context before
// every attempt and during every backoff sleep.
//
// # Host allow list
//
// [AllowedHost] implements a conservative allow-list check for URLs that
// arrive inside registry responses rather than from configuration. Only
// HTTPS URLs whose host is one of (or a subdomain of) a small fixed set of
// trusted hosts pass the check.
package httputil
