package shared

type ServerConfig struct {
	Sqlite  SqliteConfig  `mapstructure:"sqlite" validate:"required"`
	Agenda  AgendaConfig  `mapstructure:"agenda" validate:"required"`
	Weather WeatherConfig `mapstructure:"weather"`
	Google  GoogleConfig  `mapstructure:"google"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type AgendaConfig struct {
	Cron     CronConfig     `mapstructure:"cron" validate:"required"`
	Listener ListenerConfig `mapstructure:"listener" validate:"required"`
}

type WeatherConfig struct {
	BaseUrl string `mapstructure:"baseUrl"`
	Key     string `mapstructure:"key"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

type StorageConfig struct {
	Bucket                    string `mapstructure:"bucket" validate:"required_with=EnableSqliteBackupAndSync"`
	Prefix                    string `mapstructure:"prefix"`
	SqliteBackupSchedule      string `mapstructure:"sqliteBackupSchedule" validate:"required_with=EnableSqliteBackupAndSync"`
	EnableSqliteBackupAndSync bool   `mapstructure:"enableSqliteBackupAndSync"`
}
