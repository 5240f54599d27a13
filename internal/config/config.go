package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type TelegramConfig struct {
	ApiKey            string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	GroupChatId       int64  `yaml:"group_chat_id" env:"TELEGRAM_GROUP_CHAT_ID" env-default:"0"`
	TopicId           int64  `yaml:"topic_id" env-default:"0"`
	AdminId           int64  `yaml:"admin_id" env-default:"0"`
	FirstReminderMin  int    `yaml:"first_reminder_min" env-default:"30"`
	SecondReminderMin int    `yaml:"second_reminder_min" env-default:"10"`
}

type MySqlConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"true"`
	HostName string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"user" env-default:""`
	Password string `yaml:"password" env:"MYSQL_PASSWORD" env-default:""`
	Database string `yaml:"database" env-default:"linkbot"`
	Prefix   string `yaml:"prefix" env-default:""`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env-default:"linkbot"`
}

type ApiConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"true"`
	Token    string `yaml:"token" env:"API_TOKEN" env-default:""`
	Operator string `yaml:"operator" env-default:"ops"`
}

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	MySql    MySqlConfig    `yaml:"mysql"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Api      ApiConfig      `yaml:"api"`
	Listen   Listen         `yaml:"listen"`
	Env      string         `yaml:"env" env-default:"local"`
	Location string         `yaml:"location" env-default:"Europe/Moscow"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
