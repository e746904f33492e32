// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

// Package auth provides account registration, credential verification, and
// bearer-token issuance for TaskHub.
package auth
