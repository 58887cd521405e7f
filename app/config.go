package app

import (
	"io/ioutil"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/openarchive/repository-index-adapter/version"
)

const defaultConfig = `# Repository Index Adapter

################################## LOGGING ####################################

[logging]

#
# Logging verbosity level.
# Supported values: "DEBUG", "INFO", "WARN", "ERROR", "FATAL" or "PANIC".
#
level = "INFO"

################################## EXPANSION ##################################

[expansion]

#
# Public base URL of the repository. Every expanded document carries a
# globally resolvable id composed from this base.
#
public_base_url = "https://api.repository.example"

#
# User agent announced to the external registries.
#
user_agent = "repository-index-adapter"

#
# Base URL of the person directory.
#
person_registry_url = ""

#
# Name of the table holding the repository aggregates (DynamoDB).
#
storage_table = "repository_index_adapter_aggregates"

#
# Name of the table used for event deduplication (DynamoDB).
#
repository_table = "repository_index_adapter_local_data_repository"

#
# Name of the bucket where expanded entries are persisted (S3).
#
bucket = "repository-index-adapter-expanded-entries"

#
# AWS SQS queue URL, e.g. "https://queue.amazonaws.com/80398EXAMPLE/MyQueue".
#
# The adapter will subscribe to this queue.
#
queue_recv_main_addr = ""

#
# AWS SNS topic ARNs, e.g. "arn:aws:sns:us-east-2:444455556666:topic1".
#
# The adapter will publish to these topics.
#
queue_send_main_addr = ""
queue_send_error_addr = ""
queue_send_invalid_addr = ""

################################## AWS ########################################

[aws]

s3_profile = ""
s3_endpoint = ""

dynamodb_profile = ""
dynamodb_endpoint = ""

sqs_profile = ""
sqs_endpoint = ""

sns_profile = ""
sns_endpoint = ""
`

type Config struct {
	v *viper.Viper

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Expansion struct {
		PublicBaseURL        string `mapstructure:"public_base_url"`
		UserAgent            string `mapstructure:"user_agent"`
		PersonRegistryURL    string `mapstructure:"person_registry_url"`
		StorageTable         string `mapstructure:"storage_table"`
		RepositoryTable      string `mapstructure:"repository_table"`
		Bucket               string `mapstructure:"bucket"`
		QueueRecvMainAddr    string `mapstructure:"queue_recv_main_addr"`
		QueueSendMainAddr    string `mapstructure:"queue_send_main_addr"`
		QueueSendErrorAddr   string `mapstructure:"queue_send_error_addr"`
		QueueSendInvalidAddr string `mapstructure:"queue_send_invalid_addr"`
	} `mapstructure:"expansion"`

	AWS struct {
		S3Profile        string `mapstructure:"s3_profile"`
		S3Endpoint       string `mapstructure:"s3_endpoint"`
		DynamoDBProfile  string `mapstructure:"dynamodb_profile"`
		DynamoDBEndpoint string `mapstructure:"dynamodb_endpoint"`
		SQSProfile       string `mapstructure:"sqs_profile"`
		SQSEndpoint      string `mapstructure:"sqs_endpoint"`
		SNSProfile       string `mapstructure:"sns_profile"`
		SNSEndpoint      string `mapstructure:"sns_endpoint"`
	} `mapstructure:"aws"`
}

func (c Config) Validate() error {
	if _, err := url.Parse(c.Expansion.PublicBaseURL); err != nil {
		return errors.Wrap(err, "public_base_url is not a valid URL")
	}
	return nil
}

// UserAgent returns the user agent announced to the external registries.
func (c Config) UserAgent() string {
	if c.Expansion.UserAgent != "" {
		return c.Expansion.UserAgent
	}
	return version.AppVersion()
}

// PublicBaseURL returns the parsed public base URL.
func (c Config) PublicBaseURL() *url.URL {
	u, err := url.Parse(c.Expansion.PublicBaseURL)
	if err != nil {
		panic(err) // Checked during Validate.
	}
	return u
}

func (c Config) String() string {
	tmpfile, err := ioutil.TempFile("", "config.*.toml")
	if err != nil {
		return err.Error()
	}
	err = c.v.WriteConfigAs(tmpfile.Name())
	if err != nil {
		return err.Error()
	}
	blob, err := ioutil.ReadAll(tmpfile)
	if err != nil {
		return err.Error()
	}
	return string(blob)
}

func loadConfig(c *Config) error {
	v := viper.New()

	v.SetEnvPrefix("REPOSITORY_INDEX_ADAPTER")
	v.AutomaticEnv()

	v.SetConfigName("repository-index-adapter")
	v.SetConfigType("toml")
	v.AddConfigPath("$HOME/.config/")
	v.AddConfigPath("/etc/repository-index-adapter/")

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read our default configuration.
	if err := v.ReadConfig(strings.NewReader(defaultConfig)); err != nil {
		panic(err) // Not in the user path.
	}

	// Include configuration file provided by the user.
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return errors.Wrap(err, "configuration unmarshaling failed")
	}

	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "config did not pass validation")
	}

	c.v = v

	return nil
}
