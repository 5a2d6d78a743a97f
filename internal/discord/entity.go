package discord

// User is a Discord user as delivered in interaction payloads.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
	GlobalName    string `json:"global_name,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
}

// Member is a guild member. User is absent inside resolved-data snapshots.
type Member struct {
	User        *User    `json:"user,omitempty"`
	Nick        string   `json:"nick,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	JoinedAt    string   `json:"joined_at,omitempty"`
	Permissions string   `json:"permissions,omitempty"`
}

// Role is a guild role.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       int    `json:"color,omitempty"`
	Position    int    `json:"position,omitempty"`
	Permissions string `json:"permissions,omitempty"`
	Managed     bool   `json:"managed,omitempty"`
}

// Channel is the partial channel shape found in resolved data.
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Type        int    `json:"type"`
	ParentID    string `json:"parent_id,omitempty"`
	Permissions string `json:"permissions,omitempty"`
}

// Attachment is an uploaded file referenced by an attachment option.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Size        int    `json:"size"`
	URL         string `json:"url"`
	ProxyURL    string `json:"proxy_url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// Message is the partial message shape carried by component interactions
// and returned by webhook calls.
type Message struct {
	ID        string  `json:"id"`
	ChannelID string  `json:"channel_id,omitempty"`
	Content   string  `json:"content,omitempty"`
	Author    *User   `json:"author,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
	Flags     int     `json:"flags,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// Embed is a rich message embed. Only the commonly used fields are modeled.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// EmbedField is a single field of an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}
