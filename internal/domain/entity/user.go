package entity

const (
	RoleMember   = "member"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

type User struct {
	ID     string `json:"id" firestore:"id" bson:"_id"`
	Role   string `json:"role" firestore:"role" bson:"role"`
	Name   string `json:"name" firestore:"name" bson:"name"`
	Email  string `json:"email" firestore:"email" bson:"email"`
	Avatar string `json:"avatar,omitempty" firestore:"avatar,omitempty" bson:"avatar,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Avatar: u.Avatar,
	}
}
