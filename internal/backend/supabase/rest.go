// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package supabase

import (
	"context"
	"errors"
	"net/http"

	"github.com/olegiv/school-site/internal/backend"
)

// Select implements backend.Content. Requests carry the visitor's access
// token when a session exists so row-level policies apply.
func (c *Client) Select(ctx context.Context, q backend.Query, dest any) error {
	if err := q.Validate(); err != nil {
		return err
	}

	var bearer string
	if s, err := c.currentSession(ctx); err == nil && s != nil {
		bearer = s.AccessToken
	}

	url := c.conn.cfg.URL + restPath + "/" + q.Table + "?" + q.Values().Encode()
	err := c.do(ctx, http.MethodGet, url, bearer, nil, dest)
	if err == nil {
		return nil
	}

	qe := &backend.QueryError{Table: q.Table, Err: err}
	var ae *apiError
	if errors.As(err, &ae) {
		qe.Status = ae.Status
		qe.Code = ae.Code
		qe.Message = ae.text()
	}
	return qe
}
