// bus.go
package bus

import (
	"sync"
)

// -----------------------------------------------------------------------------
// Tokens + Topics
// -----------------------------------------------------------------------------

// Token is a single element in a topic path.
// It can be either a string or an integer.
type Token struct {
	kind byte // 0 = string, 1 = int
	sval string
	ival int
}

// Constructors
func S(s string) Token { return Token{kind: 0, sval: s} }
func I(i int) Token    { return Token{kind: 1, ival: i} }

// Wildcard tokens: "+" matches one token, "#" matches the rest of the path.
// Wildcards are only meaningful in subscription topics.
var (
	Plus = S("+")
	Hash = S("#")
)

func (t Token) isPlus() bool { return t.kind == 0 && t.sval == "+" }
func (t Token) isHash() bool { return t.kind == 0 && t.sval == "#" }

// Value returns the token payload as string or int.
func (t Token) Value() any {
	if t.kind == 1 {
		return t.ival
	}
	return t.sval
}

// Topic is a sequence of tokens.
type Topic []Token

// T builds a Topic from string and int parts.
func T(parts ...any) Topic {
	tp := make(Topic, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			tp = append(tp, S(v))
		case int:
			tp = append(tp, I(v))
		case Token:
			tp = append(tp, v)
		}
	}
	return tp
}

func (t Topic) Len() int     { return len(t) }
func (t Topic) At(i int) any { return t[i].Value() }

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	bus   *Bus
	conn  *Connection // owning connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

type node struct {
	children map[Token]*node
	subs     []*Subscription
	retained *Message
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu   sync.RWMutex
	root *node
	qLen int
}

// NewBus creates a new bus with the given subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{
		root: &node{},
		qLen: queueLen,
	}
}

// addSubscription inserts a subscription into the trie.
func (b *Bus) addSubscription(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range topic {
		if n.children == nil {
			n.children = make(map[Token]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}

	n.subs = append(n.subs, sub)

	// Deliver any retained messages the new subscription matches.
	b.walkRetained(b.root, topic, func(m *Message) {
		deliver(sub, m)
	})
}

// walkRetained visits retained messages matching the (possibly wildcarded)
// pattern suffix.
func (b *Bus) walkRetained(n *node, pattern Topic, fn func(*Message)) {
	if len(pattern) == 0 {
		if n.retained != nil {
			fn(n.retained)
		}
		return
	}
	tok := pattern[0]
	if tok.isHash() {
		b.walkAllRetained(n, fn)
		return
	}
	if tok.isPlus() {
		for _, child := range n.children {
			b.walkRetained(child, pattern[1:], fn)
		}
		return
	}
	if child, ok := n.children[tok]; ok {
		b.walkRetained(child, pattern[1:], fn)
	}
}

func (b *Bus) walkAllRetained(n *node, fn func(*Message)) {
	if n.retained != nil {
		fn(n.retained)
	}
	for _, child := range n.children {
		b.walkAllRetained(child, fn)
	}
}

// Publish delivers a message to all subscribers whose pattern matches its
// topic, and stores it when retained. Publish topics must be concrete.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.match(b.root, msg.Topic, msg)

	if !msg.Retained {
		return
	}

	// Store or clear retained message at the concrete path.
	n := b.root
	for _, tok := range msg.Topic {
		if n.children == nil {
			n.children = make(map[Token]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	if msg.Payload == nil {
		n.retained = nil
	} else {
		n.retained = msg
	}
}

// match walks the trie following exact tokens and wildcard branches.
func (b *Bus) match(n *node, topic Topic, msg *Message) {
	if len(topic) == 0 {
		for _, sub := range n.subs {
			deliver(sub, msg)
		}
		// "a/b" also matches a subscription on "a/b/#".
		if n.children != nil {
			if child, ok := n.children[Hash]; ok {
				for _, sub := range child.subs {
					deliver(sub, msg)
				}
			}
		}
		return
	}
	if n.children == nil {
		return
	}
	if child, ok := n.children[topic[0]]; ok {
		b.match(child, topic[1:], msg)
	}
	if child, ok := n.children[Plus]; ok {
		b.match(child, topic[1:], msg)
	}
	if child, ok := n.children[Hash]; ok {
		for _, sub := range child.subs {
			deliver(sub, msg)
		}
	}
}

func deliver(sub *Subscription, msg *Message) {
	select {
	case sub.ch <- msg:
	default:
		// drop oldest if queue full
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

// unsubscribe removes a subscription from the trie.
func (b *Bus) unsubscribe(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, t := range topic {
		if n.children == nil {
			return
		}
		child, ok := n.children[t]
		if !ok {
			return
		}
		stack = append(stack, n)
		n = child
	}

	// Remove subscription.
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	// Prune empty nodes.
	for i := len(topic) - 1; i >= 0; i-- {
		parent := stack[i]
		key := topic[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	subs []*Subscription
	mu   sync.Mutex
	id   string // placeholder for future identity/auth
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{
		bus: b,
		id:  id,
	}
}

// NewMessage builds a message for Publish.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		bus:   c.bus,
		conn:  c,
	}
	c.bus.addSubscription(topic, sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.topic, sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub.topic, sub)
		close(sub.ch)
	}
}
