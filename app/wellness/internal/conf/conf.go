package conf

type Bootstrap struct {
	Server   *Server   `json:"server"`
	Data     *Data     `json:"data"`
	Auth     *Auth     `json:"auth"`
	Analyzer *Analyzer `json:"analyzer"`
}

type Server struct {
	Http *HTTP `json:"http"`
}

type HTTP struct {
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

// Data 存储后端，driver 为 postgres 或 supabase
type Data struct {
	Database *Database `json:"database"`
	Supabase *Supabase `json:"supabase"`
}

type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}

type Supabase struct {
	Url string `json:"url"`
	Key string `json:"key"`
}

// Auth mode 为 jwt（本地校验签名）或 supabase（调用 Auth 服务）
type Auth struct {
	Mode      string `json:"mode"`
	JwtSecret string `json:"jwt_secret"`
	Audience  string `json:"audience"`
}

type Analyzer struct {
	Llm         *LLM         `json:"llm"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
}

type LLM struct {
	Provider string `json:"provider"`
	BaseUrl  string `json:"base_url"`
	ApiKey   string `json:"api_key"`
	Model    string `json:"model"`
	Timeout  int32  `json:"timeout"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}
