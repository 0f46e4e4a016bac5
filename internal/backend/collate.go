// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortModels returns a sorted copy of ids using locale-aware collation, so
// "alpha", "Beta" and "gamma" sort the way a person reads them rather than
// by byte value.
func SortModels(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	collate.New(language.Und).SortStrings(out)
	return out
}
