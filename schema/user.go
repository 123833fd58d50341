package schema

import (
	"strings"

	"github.com/ryogrid/SamehadaDict/storage/index"
)

type Priv uint32

const (
	PRIV_R Priv = 1 << iota
	PRIV_W
	PRIV_X
	PRIV_S
	PRIV_U
	PRIV_C
	PRIV_A
	PRIV_D
	PRIV_ALL Priv = ^Priv(0)
)

// PrivName renders a privilege mask the way access errors do.
func PrivName(p Priv) string {
	switch p {
	case PRIV_R:
		return "Read"
	case PRIV_W:
		return "Write"
	case PRIV_X:
		return "Execute"
	case PRIV_S:
		return "Session"
	case PRIV_U:
		return "Usage"
	case PRIV_C:
		return "Create"
	case PRIV_A:
		return "Alter"
	case PRIV_D:
		return "Drop"
	}
	return "Access"
}

// object types of _priv rows
const (
	ObjectUniverse = "universe"
	ObjectSpace    = "space"
	ObjectSequence = "sequence"
	ObjectFunction = "function"
	ObjectRole     = "role"
	ObjectUser     = "user"
)

const (
	UserTypeUser = "user"
	UserTypeRole = "role"
)

type PrivObject struct {
	Type string
	ID   uint32
}

type User struct {
	ID     uint32
	Owner  uint32
	Name   string
	Type   string
	Grants map[PrivObject]Priv
}

func NewUser(id uint32, owner uint32, name string, userType string) *User {
	return &User{ID: id, Owner: owner, Name: name, Type: userType, Grants: make(map[PrivObject]Priv)}
}

func (u *User) IsRole() bool { return u.Type == UserTypeRole }

// Copy duplicates the grant map so that a pending change does not leak
// into the cached object.
func (u *User) Copy() *User {
	ret := NewUser(u.ID, u.Owner, u.Name, u.Type)
	for k, v := range u.Grants {
		ret.Grants[k] = v
	}
	return ret
}

type Func struct {
	ID       uint32
	Owner    uint32
	Name     string
	Setuid   bool
	Language string
	Body     string
	Returns  string
}

func (f *Func) IsSQLExpr() bool {
	return strings.EqualFold(f.Language, "SQL_EXPR")
}

type CollationEntry struct {
	ID     uint32
	Name   string
	Owner  uint32
	Type   string
	Locale string
	Coll   index.Collation
}
