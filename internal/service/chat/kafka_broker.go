package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConfig Kafka 总线参数
type KafkaConfig struct {
	HostPort    string
	Topic       string
	GroupPrefix string
	Timeout     time.Duration
}

// KafkaBroker 基于 Kafka 的事件总线
// 每个实例使用独立的消费组，保证每个实例都能收到全部事件；
// 以用户 id 作为消息 key，同一用户的事件落在同一分区，保持顺序
type KafkaBroker struct {
	producer *kafka.Writer // 生产者：负责写入事件
	consumer *kafka.Reader // 消费者：负责读取事件

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewKafkaBroker 创建 Kafka 读写端，不建立连接
func NewKafkaBroker(cfg KafkaConfig) *KafkaBroker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	groupID := cfg.GroupPrefix + "-" + uuid.NewString()
	return &KafkaBroker{
		producer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.HostPort),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           timeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		consumer: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        []string{cfg.HostPort},
			Topic:          cfg.Topic,
			GroupID:        groupID,
			CommitInterval: timeout,
			StartOffset:    kafka.LastOffset,
		}),
	}
}

// Publish 写入 Kafka
func (b *KafkaBroker) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(env.UserId, 10)),
		Value: data,
	})
}

// Start 启动消费协程
func (b *KafkaBroker) Start(ctx context.Context, deliver func(Envelope)) error {
	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			msg, err := b.consumer.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					return
				}
				zap.L().Error("kafka broker: read failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}
			var env Envelope
			if err := json.Unmarshal(msg.Value, &env); err != nil {
				zap.L().Error("kafka broker: bad payload",
					zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset), zap.Error(err))
				continue
			}
			safeDeliver(deliver, env)
		}
	}()
	zap.L().Info("kafka broker started", zap.String("topic", b.consumer.Config().Topic), zap.String("group", b.consumer.Config().GroupID))
	return nil
}

// Close 停止消费并关闭读写端
func (b *KafkaBroker) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	errR := b.consumer.Close()
	b.wg.Wait()
	errW := b.producer.Close()
	return errors.Join(errR, errW)
}

func (b *KafkaBroker) Mode() string { return "kafka" }
