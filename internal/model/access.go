package model

import "sort"

type AccessType string

const (
	AccessPublic  AccessType = "public"
	AccessPrivate AccessType = "private"
)

func (t AccessType) Valid() bool {
	return t == AccessPublic || t == AccessPrivate
}

// AccessPolicy 公开/私有 + 白名单。公开时白名单恒为空。
type AccessPolicy struct {
	AccessType      AccessType `gorm:"column:access_type;size:10;default:'public'" json:"accessType"`
	AuthorizedUsers []uint     `gorm:"column:authorized_users;type:text;serializer:json" json:"authorizedUsers"`
}

func PublicPolicy() AccessPolicy {
	return AccessPolicy{AccessType: AccessPublic, AuthorizedUsers: []uint{}}
}

func PrivatePolicy(userIDs ...uint) AccessPolicy {
	return AccessPolicy{AccessType: AccessPrivate, AuthorizedUsers: normalizeIDs(userIDs)}
}

// SetAccessType 切换访问类型；切到 public 时在同一步里清空白名单
func SetAccessType(p AccessPolicy, t AccessType) AccessPolicy {
	if t == AccessPublic {
		return PublicPolicy()
	}
	return AccessPolicy{AccessType: t, AuthorizedUsers: normalizeIDs(p.AuthorizedUsers)}
}

// Authorize 加入白名单。public 下也允许，只是不会产生可见效果。
func (p AccessPolicy) Authorize(userID uint) AccessPolicy {
	ids := append(append([]uint{}, p.AuthorizedUsers...), userID)
	return AccessPolicy{AccessType: p.AccessType, AuthorizedUsers: normalizeIDs(ids)}
}

func (p AccessPolicy) Revoke(userID uint) AccessPolicy {
	ids := make([]uint, 0, len(p.AuthorizedUsers))
	for _, id := range p.AuthorizedUsers {
		if id != userID {
			ids = append(ids, id)
		}
	}
	return AccessPolicy{AccessType: p.AccessType, AuthorizedUsers: ids}
}

func (p AccessPolicy) Allows(userID uint) bool {
	for _, id := range p.AuthorizedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Normalize 去重排序；public 策略会丢弃残留的白名单
func (p AccessPolicy) Normalize() AccessPolicy {
	if p.AccessType == AccessPublic {
		return PublicPolicy()
	}
	return AccessPolicy{AccessType: p.AccessType, AuthorizedUsers: normalizeIDs(p.AuthorizedUsers)}
}

func normalizeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
