package app

import (
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openarchive/repository-index-adapter/expand"
	"github.com/openarchive/repository-index-adapter/indexer"
	"github.com/openarchive/repository-index-adapter/linkeddata"
	"github.com/openarchive/repository-index-adapter/objectstore"
	"github.com/openarchive/repository-index-adapter/registry"
	"github.com/openarchive/repository-index-adapter/storage"
	"github.com/openarchive/repository-index-adapter/version"
)

func NewCmdServer(logger logrus.FieldLogger, config *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the application server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.WithField("v", version.VERSION).Info("Starting server...")
			return doServer(logger, config)
		},
	}
}

func doServer(logger logrus.FieldLogger, config *Config) error {
	var g run.Group
	{
		idx, err := server(logger, config)
		if err != nil {
			return err
		}

		g.Add(func() error {
			idx.Run()
			return nil
		}, func(error) {
			idx.Stop()
		})
	}
	{
		ln, err := net.Listen("tcp", ":6060")
		if err != nil {
			return err
		}
		logger.WithField("addr", ln.Addr().String()).Info("HTTP server listening")

		g.Add(func() error {
			mux := http.NewServeMux()

			// Health check.
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, "OK")
			})

			// Prometheus metrics.
			mux.Handle("/metrics", promhttp.Handler())

			// Profiling data.
			mux.HandleFunc("/debug/pprof/", pprof.Index)
			mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
			mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
			mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
			mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
			mux.Handle("/debug/pprof/block", pprof.Handler("block"))
			mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
			mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
			mux.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))

			return http.Serve(ln, mux)
		}, func(error) {
			ln.Close()
		})
	}
	{
		cancel := make(chan struct{})

		g.Add(func() error {
			err := interrupt(cancel)
			logger.Warn("Shutting down...")
			return err
		}, func(error) {
			close(cancel)
		})
	}

	return g.Run()
}

func server(logger logrus.FieldLogger, config *Config) (*indexer.Indexer, error) {
	incomingEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "repository_index_adapter",
		Name:      "incoming_events_total",
		Help:      "The total number of events received.",
	})
	failedExpansions := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "repository_index_adapter",
		Name:      "failed_expansions_total",
		Help:      "The total number of expansions that could not be delivered.",
	})
	prometheus.MustRegister(incomingEvents, failedExpansions)

	baseURL := config.PublicBaseURL()
	userAgent := config.UserAgent()

	var dynamodbClient *dynamodb.DynamoDB
	{
		sess, err := awsSession(logger, config.AWS.DynamoDBProfile, config.AWS.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		dynamodbClient = dynamodb.New(sess)
	}

	store := storage.NewDynamoDB(dynamodbClient, config.Expansion.StorageTable)

	var resources *expand.ResourceAssembler
	{
		channels, err := registry.NewChannelRegistry(logger.WithField("component", "channel-registry"), userAgent)
		if err != nil {
			return nil, err
		}
		merger := linkeddata.NewMerger(logger.WithField("component", "linkeddata"), channels)
		resources = expand.NewResourceAssembler(logger.WithField("component", "resources"), merger, baseURL)
	}

	var tickets *expand.TicketExpander
	{
		persons, err := registry.NewPersonRegistry(
			logger.WithField("component", "person-registry"),
			config.Expansion.PersonRegistryURL, userAgent)
		if err != nil {
			return nil, err
		}
		organizations, err := registry.NewOrganizationRegistry(
			logger.WithField("component", "organization-registry"), userAgent)
		if err != nil {
			return nil, err
		}
		tickets = expand.NewTicketExpander(
			logger.WithField("component", "tickets"),
			store, store, persons, organizations, baseURL)
	}

	var objects objectstore.ObjectStorage
	{
		sess, err := awsSession(logger, config.AWS.S3Profile, config.AWS.S3Endpoint)
		if err != nil {
			return nil, err
		}
		objects = objectstore.New(sess, config.Expansion.Bucket)
	}

	var sqsClient *sqs.SQS
	{
		sess, err := awsSession(logger, config.AWS.SQSProfile, config.AWS.SQSEndpoint)
		if err != nil {
			return nil, err
		}
		sqsClient = sqs.New(sess)
	}

	var snsClient *sns.SNS
	{
		sess, err := awsSession(logger, config.AWS.SNSProfile, config.AWS.SNSEndpoint)
		if err != nil {
			return nil, err
		}
		snsClient = sns.New(sess)
	}

	return indexer.New(
		logger,
		store,
		resources, tickets,
		objects, baseURL,
		sqsClient, config.Expansion.QueueRecvMainAddr,
		snsClient, config.Expansion.QueueSendMainAddr, config.Expansion.QueueSendInvalidAddr, config.Expansion.QueueSendErrorAddr,
		dynamodbClient, config.Expansion.RepositoryTable,
		incomingEvents, failedExpansions), nil
}

type logrusProxy struct {
	logger logrus.FieldLogger
}

func (l logrusProxy) Log(args ...interface{}) {
	l.logger.WithField("client", "aws").Debug(args...)
}

// awsSession returns a session using NewSessionWithOptions meaning that it
// relies on the SDK defaults but also the user config files and environment.
//
// AWS_S3_FORCE_PATH_STYLE is a made-up environment string that the SDK does
// not look up. This could be done via configuration instead but I don't want
// to add more surface to the config layer that what's really needed in prod.
func awsSession(logger logrus.FieldLogger, profile, endpoint string) (*session.Session, error) {
	options := session.Options{}
	if profile != "" {
		options.Profile = profile
	}
	if endpoint != "" {
		options.Config.WithEndpoint(endpoint)
	}
	if res, ok := os.LookupEnv("AWS_S3_FORCE_PATH_STYLE"); ok {
		enabled, _ := strconv.ParseBool(res)
		options.Config.WithS3ForcePathStyle(enabled)
	}
	if logrus.GetLevel() == logrus.DebugLevel {
		options.Config.WithCredentialsChainVerboseErrors(true)
	}
	options.Config.WithLogger(logrusProxy{logger: logger})
	return session.NewSessionWithOptions(options)
}
