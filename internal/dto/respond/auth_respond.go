package respond

// LoginRespond 登录/注册成功后返回的用户信息与令牌
type LoginRespond struct {
	Id           uint64 `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	AvatarUrl    string `json:"avatarUrl"`
	IsFreelancer bool   `json:"isFreelancer"`
	AccessToken  string `json:"accessToken"`
}
