// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backoffice

import (
	"context"
	"slices"
	"strings"

	"github.com/zintix-labs/backoffice/access"
	"github.com/zintix-labs/backoffice/dto"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/repo"
	"github.com/zintix-labs/backoffice/session"
	"github.com/zintix-labs/backoffice/view"
)

// ListParams are the common screen inputs.
type ListParams struct {
	Page   int
	Search string
}

// ============================================================
// ** users **
// ============================================================

func (c *Console) Users(ctx context.Context, p ListParams) (view.Screen[dto.User], error) {
	ctx, s, err := c.authorize(ctx, access.ModuleUser, access.Read)
	if err != nil {
		return view.Screen[dto.User]{}, err
	}
	items, err := c.users.List(ctx, nil)
	if err != nil {
		return view.Screen[dto.User]{}, err
	}
	return view.NewScreen(s.Role, access.ModuleUser, items, p.Page, view.MasterPageSize), nil
}

func (c *Console) User(ctx context.Context, id string) (*dto.User, error) {
	ctx, _, err := c.authorize(ctx, access.ModuleUser, access.Update)
	if err != nil {
		return nil, err
	}
	return c.users.Detail(ctx, id)
}

// Roles feeds the role picker of the user form.
func (c *Console) Roles(ctx context.Context) ([]dto.RoleOption, error) {
	ctx, _, err := c.authorize(ctx, access.ModuleUser, access.Read)
	if err != nil {
		return nil, err
	}
	return c.roles.List(ctx, nil)
}

func (c *Console) CreateUser(ctx context.Context, in dto.UserCreate) (repo.Result[dto.User], error) {
	ctx, _, err := c.authorize(ctx, access.ModuleUser, access.Create)
	if err != nil {
		return repo.Result[dto.User]{}, err
	}
	if err := in.Valid(); err != nil {
		return repo.Result[dto.User]{}, err
	}
	return c.users.Create(ctx, in)
}

func (c *Console) UpdateUser(ctx context.Context, in dto.UserUpdate) (repo.Result[dto.User], error) {
	ctx, _, err := c.authorize(ctx, access.ModuleUser, access.Update)
	if err != nil {
		return repo.Result[dto.User]{}, err
	}
	if err := in.Valid(); err != nil {
		return repo.Result[dto.User]{}, err
	}
	return c.users.Update(ctx, in)
}

func (c *Console) DeleteUser(ctx context.Context, id string, confirm bool) (repo.Result[dto.User], error) {
	ctx, _, err := c.authorize(ctx, access.ModuleUser, access.Delete)
	if err != nil {
		return repo.Result[dto.User]{}, err
	}
	if err := confirmed(confirm); err != nil {
		return repo.Result[dto.User]{}, err
	}
	return c.users.Delete(ctx, id)
}

// ============================================================
// ** whitelist **
// ============================================================

func (c *Console) Whitelist(ctx context.Context, p ListParams) (view.Screen[dto.WhitelistEntry], error) {
	ctx, s, err := c.authorize(ctx, access.ModuleWhitelist, access.Read)
	if err != nil {
		return view.Screen[dto.WhitelistEntry]{}, err
	}
	items, err := c.whitelist.List(ctx, nil)
	if err != nil {
		return view.Screen[dto.WhitelistEntry]{}, err
	}
	return view.NewScreen(s.Role, access.ModuleWhitelist, items, p.Page, view.MasterPageSize), nil
}

func (c *Console) CreateWhitelist(ctx context.Context, in dto.WhitelistCreate) (repo.Result[dto.WhitelistEntry], error) {
	ctx, _, err := c.authorize(ctx, access.ModuleWhitelist, access.Create)
	if err != nil {
		return repo.Result[dto.WhitelistEntry]{}, err
	}
	if err := in.Valid(); err != nil {
		return repo.Result[dto.WhitelistEntry]{}, err
	}
	return c.whitelist.Create(ctx, in)
}

func (c *Console) DeleteWhitelist(ctx context.Context, id string, confirm bool) (repo.Result[dto.WhitelistEntry], error) {
	ctx, _, err := c.authorize(ctx, access.ModuleWhitelist, access.Delete)
	if err != nil {
		return repo.Result[dto.WhitelistEntry]{}, err
	}
	if err := confirmed(confirm); err != nil {
		return repo.Result[dto.WhitelistEntry]{}, err
	}
	return c.whitelist.Delete(ctx, id)
}

// ============================================================
// ** players **
// ============================================================

// Players is the player list, filtered by username or name.
func (c *Console) Players(ctx context.Context, p ListParams) (view.Screen[dto.Player], error) {
	ctx, s, err := c.authorize(ctx, access.ModulePlayer, access.Read)
	if err != nil {
		return view.Screen[dto.Player]{}, err
	}
	items, err := c.players.List(ctx, nil)
	if err != nil {
		return view.Screen[dto.Player]{}, err
	}
	items = view.Filter(items, p.Search, view.PlayerFields)
	sc := view.NewScreen(s.Role, access.ModulePlayer, items, p.Page, view.MasterPageSize)
	sc.Search = strings.TrimSpace(p.Search)
	return sc, nil
}

// AllPlayers returns the unpaged player list, for the CLI.
func (c *Console) AllPlayers(ctx context.Context, search string) ([]dto.Player, error) {
	ctx, _, err := c.authorize(ctx, access.ModulePlayer, access.Read)
	if err != nil {
		return nil, err
	}
	items, err := c.players.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return view.Filter(items, search, view.PlayerFields), nil
}

func (c *Console) Player(ctx context.Context, id string) (*dto.Player, error) {
	ctx, _, err := c.authorize(ctx, access.ModulePlayer, access.Read)
	if err != nil {
		return nil, err
	}
	return c.players.Detail(ctx, id)
}

// ============================================================
// ** websites **
// ============================================================

// Websites lists only the websites the session manages.
func (c *Console) Websites(ctx context.Context, p ListParams) (view.Screen[dto.Website], error) {
	ctx, s, err := c.authorize(ctx, access.ModuleWebsite, access.Read)
	if err != nil {
		return view.Screen[dto.Website]{}, err
	}
	all, err := c.websites.List(ctx, nil)
	if err != nil {
		return view.Screen[dto.Website]{}, err
	}
	items := view.Filter(view.Managed(all, s.Websites), p.Search, view.WebsiteFields)
	sc := view.NewScreen(s.Role, access.ModuleWebsite, items, p.Page, view.MasterPageSize)
	sc.Search = strings.TrimSpace(p.Search)
	return sc, nil
}

func (c *Console) Website(ctx context.Context, id string) (*dto.Website, error) {
	ctx, s, err := c.authorize(ctx, access.ModuleWebsite, access.Update)
	if err != nil {
		return nil, err
	}
	if !s.Manages(id) {
		return nil, errs.NewWithExtra(errs.Denied, "website not managed by this account", id)
	}
	return c.websites.Detail(ctx, id)
}

// CreateWebsite 建立網站；admin（或不受限角色）會把新網站加入自己的管理清單。
func (c *Console) CreateWebsite(ctx context.Context, in dto.WebsiteCreate) (repo.Result[dto.Website], error) {
	ctx, s, err := c.authorize(ctx, access.ModuleWebsite, access.Create)
	if err != nil {
		return repo.Result[dto.Website]{}, err
	}
	if err := in.Valid(); err != nil {
		return repo.Result[dto.Website]{}, err
	}
	res, err := c.websites.Create(ctx, in)
	if err != nil {
		return res, err
	}
	managed := s.Websites
	if res.ID != "" && ownsNewWebsites(s) {
		managed, err = c.sessions.UpdateWebsites(ctx, s.ID, func(ids []string) []string {
			if slices.Contains(ids, res.ID) {
				return ids
			}
			return append(ids, res.ID)
		})
		if err != nil {
			return res, err
		}
	}
	res.Items = view.Managed(res.Items, managed)
	return res, nil
}

func (c *Console) UpdateWebsite(ctx context.Context, in dto.WebsiteUpdate) (repo.Result[dto.Website], error) {
	ctx, s, err := c.authorize(ctx, access.ModuleWebsite, access.Update)
	if err != nil {
		return repo.Result[dto.Website]{}, err
	}
	if err := in.Valid(); err != nil {
		return repo.Result[dto.Website]{}, err
	}
	if !s.Manages(in.ID) {
		return repo.Result[dto.Website]{}, errs.NewWithExtra(errs.Denied, "website not managed by this account", in.ID)
	}
	res, err := c.websites.Update(ctx, in)
	if err != nil {
		return res, err
	}
	res.Items = view.Managed(res.Items, s.Websites)
	return res, nil
}

func (c *Console) DeleteWebsite(ctx context.Context, id string, confirm bool) (repo.Result[dto.Website], error) {
	ctx, s, err := c.authorize(ctx, access.ModuleWebsite, access.Delete)
	if err != nil {
		return repo.Result[dto.Website]{}, err
	}
	if err := confirmed(confirm); err != nil {
		return repo.Result[dto.Website]{}, err
	}
	if !s.Manages(id) {
		return repo.Result[dto.Website]{}, errs.NewWithExtra(errs.Denied, "website not managed by this account", id)
	}
	res, err := c.websites.Delete(ctx, id)
	if err != nil {
		return res, err
	}
	managed, err := c.sessions.UpdateWebsites(ctx, s.ID, func(ids []string) []string {
		return slices.DeleteFunc(ids, func(x string) bool { return x == id })
	})
	if err != nil {
		return res, err
	}
	res.Items = view.Managed(res.Items, managed)
	return res, nil
}

func ownsNewWebsites(s *session.Session) bool {
	if s.Role == nil {
		return false
	}
	return s.Role.Unrestricted || strings.EqualFold(strings.TrimSpace(s.Role.Name), "admin")
}
