package classpilot

import "fmt"

// Catalog is the static registry of tool definitions and their role-based
// visibility. It is immutable after construction and safe to share across
// sessions.
type Catalog struct {
	defs  []ToolDefinition
	roles map[string][]string // role -> ordered visible tool names
}

// NewCatalog builds a catalog from the full definition list and a role
// visibility map. Every definition must validate, every role list may only
// reference declared tools, and the admin set must be a superset of every
// other role's set.
func NewCatalog(defs []ToolDefinition, roles map[string][]string) (*Catalog, error) {
	byName := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byName[d.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate tool %q: %w", d.Name, ErrInvalidDefinition)
		}
		byName[d.Name] = struct{}{}
	}

	admin := make(map[string]struct{})
	for _, name := range roles[UserRoleAdmin] {
		admin[name] = struct{}{}
	}
	for role, names := range roles {
		for _, name := range names {
			if _, ok := byName[name]; !ok {
				return nil, fmt.Errorf("catalog: role %q references unknown tool %q: %w", role, name, ErrUnknownTool)
			}
			if _, ok := admin[name]; !ok {
				return nil, fmt.Errorf("catalog: role %q tool %q is not visible to admin: %w", role, name, ErrInvalidDefinition)
			}
		}
	}

	cloned := make([]ToolDefinition, len(defs))
	copy(cloned, defs)
	rolesCopy := make(map[string][]string, len(roles))
	for role, names := range roles {
		rolesCopy[role] = append([]string(nil), names...)
	}
	return &Catalog{defs: cloned, roles: rolesCopy}, nil
}

// DefinitionsFor returns the ordered tool definitions visible to the given
// role. Unknown roles fall back to the student (minimal read-only) set.
// Deterministic; no side effects.
func (c *Catalog) DefinitionsFor(role string) []ToolDefinition {
	names, ok := c.roles[NormalizeRole(role)]
	if !ok {
		names = c.roles[UserRoleStudent]
	}
	visible := make(map[string]struct{}, len(names))
	for _, n := range names {
		visible[n] = struct{}{}
	}
	out := make([]ToolDefinition, 0, len(names))
	for _, d := range c.defs {
		if _, ok := visible[d.Name]; ok {
			out = append(out, d)
		}
	}
	return out
}

// NamesFor returns the set of tool names visible to the given role.
func (c *Catalog) NamesFor(role string) map[string]bool {
	defs := c.DefinitionsFor(role)
	names := make(map[string]bool, len(defs))
	for _, d := range defs {
		names[d.Name] = true
	}
	return names
}

// Definition looks up a tool by name across the whole catalog, regardless
// of role visibility. Unknown names fail closed.
func (c *Catalog) Definition(name string) (ToolDefinition, bool) {
	return findDefinition(c.defs, name)
}
