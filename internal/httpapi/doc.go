// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

// Package httpapi exposes the TaskHub HTTP JSON API: registration, login,
// and owner-scoped task CRUD behind bearer-token authentication.
package httpapi
