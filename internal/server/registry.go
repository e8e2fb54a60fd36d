package server

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"card-czar/internal/cards"
	"card-czar/internal/game"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotInRoom    = errors.New("player is not in a room")
)

// Members routes room broadcasts to the connections seated in a room.
type Members interface {
	Bind(playerID, roomID string)
	Unbind(playerID string)
}

type RegistryOptions struct {
	Settings    game.Settings
	Supplier    cards.Supplier
	Broadcaster game.Broadcaster
	Members     Members
	Names       *game.NamePool
	Clock       clockwork.Clock
	// Closed runs for every room the registry destroys.
	Closed func(roomID string)
}

type RoomSummary struct {
	ID      string `json:"id"`
	State   string `json:"state"`
	Players int    `json:"players"`
	Public  bool   `json:"public"`
}

type room struct {
	session *game.Session
	public  bool
	seq     int
}

// Registry owns every live room and which room each player is seated in.
type Registry struct {
	mu      sync.Mutex
	opts    RegistryOptions
	nextID  int
	seq     int
	rooms   map[string]*room
	players map[string]string
}

func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Names == nil {
		opts.Names = game.NewNamePool()
	}
	return &Registry{
		opts:    opts,
		rooms:   make(map[string]*room),
		players: make(map[string]string),
	}
}

// Join seats a player. An empty roomID picks the oldest open public room;
// custom allows a missing roomID to be created.
func (r *Registry) Join(roomID string, custom bool, info game.PlayerInfo) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[info.ID]; ok {
		return nil, game.ErrAlreadyJoined
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return r.joinPublic(info)
	}
	rm, ok := r.rooms[roomID]
	if !ok {
		if !custom {
			return nil, ErrRoomNotFound
		}
		rm = r.createRoom(roomID, false)
	}
	if err := r.seat(rm, info); err != nil {
		return nil, err
	}
	return rm.session, nil
}

func (r *Registry) joinPublic(info game.PlayerInfo) (*game.Session, error) {
	for _, rm := range r.sortedRooms() {
		if !rm.public || rm.session.State() != game.StateAwaitingPlayers {
			continue
		}
		if rm.session.PlayerCount() >= r.opts.Settings.PlayerMaxLimit {
			continue
		}
		if err := r.seat(rm, info); err == nil {
			return rm.session, nil
		}
	}
	rm := r.createRoom(r.newPublicID(), true)
	if err := r.seat(rm, info); err != nil {
		return nil, err
	}
	return rm.session, nil
}

func (r *Registry) newPublicID() string {
	for {
		r.nextID++
		id := strconv.Itoa(r.nextID)
		if _, exists := r.rooms[id]; !exists {
			return id
		}
	}
}

func (r *Registry) createRoom(id string, public bool) *room {
	r.seq++
	rm := &room{
		session: game.NewSession(id, game.Options{
			Settings:    r.opts.Settings,
			Supplier:    r.opts.Supplier,
			Broadcaster: r.opts.Broadcaster,
			Names:       r.opts.Names,
			Clock:       r.opts.Clock,
		}),
		public: public,
		seq:    r.seq,
	}
	r.rooms[id] = rm
	return rm
}

func (r *Registry) seat(rm *room, info game.PlayerInfo) error {
	roomID := rm.session.ID()
	r.bind(info.ID, roomID)
	if _, err := rm.session.AddPlayer(info); err != nil {
		r.unbind(info.ID)
		if rm.session.PlayerCount() == 0 {
			r.destroy(rm)
		}
		return err
	}
	r.players[info.ID] = roomID
	return nil
}

func (r *Registry) Start(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, err := r.roomOf(playerID)
	if err != nil {
		return err
	}
	if err := rm.session.Start(); err != nil {
		return err
	}
	rm.session.Notify("The game has begun!")
	return nil
}

func (r *Registry) PickCards(playerID string, cardIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, err := r.roomOf(playerID)
	if err != nil {
		return err
	}
	rm.session.PickCards(playerID, cardIDs)
	return nil
}

func (r *Registry) PickWinning(playerID, cardID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, err := r.roomOf(playerID)
	if err != nil {
		return err
	}
	rm.session.PickWinning(playerID, cardID)
	return nil
}

// Leave removes a player. A started game that would drop below the minimum
// roster is dissolved instead.
func (r *Registry) Leave(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, err := r.roomOf(playerID)
	if err != nil {
		return err
	}
	delete(r.players, playerID)
	r.unbind(playerID)

	session := rm.session
	remaining := session.PlayerCount() - 1
	if session.State() == game.StateAwaitingPlayers || remaining >= r.opts.Settings.PlayerMinLimit {
		session.RemovePlayer(playerID)
		if session.PlayerCount() == 0 {
			r.destroy(rm)
		}
		return nil
	}
	log.Info().Str("room_id", session.ID()).Str("player_id", playerID).Int("remaining", remaining).Msg("too few players, dissolving room")
	session.Dissolve()
	r.destroy(rm)
	return nil
}

func (r *Registry) destroy(rm *room) {
	roomID := rm.session.ID()
	rm.session.Kill()
	delete(r.rooms, roomID)
	if r.opts.Closed != nil {
		r.opts.Closed(roomID)
	}
	for playerID, seated := range r.players {
		if seated == roomID {
			delete(r.players, playerID)
			r.unbind(playerID)
		}
	}
}

func (r *Registry) Get(roomID string) (*game.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	return rm.session, true
}

// RoomOf returns the room a player is seated in.
func (r *Registry) RoomOf(playerID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roomID, ok := r.players[playerID]
	return roomID, ok
}

func (r *Registry) List() []RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	rooms := r.sortedRooms()
	list := make([]RoomSummary, 0, len(rooms))
	for _, rm := range rooms {
		list = append(list, RoomSummary{
			ID:      rm.session.ID(),
			State:   rm.session.State().String(),
			Players: rm.session.PlayerCount(),
			Public:  rm.public,
		})
	}
	return list
}

// Shutdown kills every room.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID, rm := range r.rooms {
		rm.session.Kill()
		if r.opts.Closed != nil {
			r.opts.Closed(roomID)
		}
	}
	for playerID := range r.players {
		r.unbind(playerID)
	}
	clear(r.rooms)
	clear(r.players)
}

func (r *Registry) roomOf(playerID string) (*room, error) {
	roomID, ok := r.players[playerID]
	if !ok {
		return nil, ErrNotInRoom
	}
	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

func (r *Registry) sortedRooms() []*room {
	rooms := make([]*room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].seq < rooms[j].seq
	})
	return rooms
}

func (r *Registry) bind(playerID, roomID string) {
	if r.opts.Members != nil {
		r.opts.Members.Bind(playerID, roomID)
	}
}

func (r *Registry) unbind(playerID string) {
	if r.opts.Members != nil {
		r.opts.Members.Unbind(playerID)
	}
}
