package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"aura-go/internal/events"
	"aura-go/internal/leaderboard"
	"aura-go/internal/models"
	"aura-go/internal/storage"
)

// memStore is an in-memory stand-in for the gorm repositories. WithinTransaction
// snapshots the whole store and restores it when fn fails.
type memStore struct {
	mu sync.Mutex

	nextID    uint
	clock     time.Time
	profiles  map[uint]models.Profile
	offline   map[uint]models.OfflineFriend
	links     []models.FriendLink
	requests  map[uint]models.FriendRequest
	proposals map[uint]models.AuraProposal
	votes     []models.ProposalVote

	// failures injects an error into the named operation.
	failures map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		profiles:  map[uint]models.Profile{},
		offline:   map[uint]models.OfflineFriend{},
		requests:  map[uint]models.FriendRequest{},
		proposals: map[uint]models.AuraProposal{},
		failures:  map[string]error{},
	}
}

func (m *memStore) repos() storage.Repositories {
	return storage.Repositories{
		Profiles:       memProfiles{m},
		OfflineFriends: memOffline{m},
		FriendLinks:    memLinks{m},
		FriendRequests: memRequests{m},
		Proposals:      memProposals{m},
		Votes:          memVotes{m},
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) fail(op string) error {
	return m.failures[op]
}

func (m *memStore) stamp(b *models.BaseModel) {
	if b.ID == 0 {
		b.ID = m.id()
	}
	b.CreatedAt = m.clock
	b.UpdatedAt = m.clock
}

// advance moves the clock used for CreatedAt.
func (m *memStore) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(d)
}

func (m *memStore) addProfile(name string, aura int64) models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := models.Profile{Username: name, Email: name + "@example.com", Aura: aura}
	m.stamp(&p.BaseModel)
	m.profiles[p.ID] = p
	return p
}

func (m *memStore) addOffline(creatorID uint, name string, aura int64) models.OfflineFriend {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := models.OfflineFriend{CreatorID: creatorID, Name: name, Aura: aura}
	m.stamp(&f.BaseModel)
	m.offline[f.ID] = f
	return f
}

func (m *memStore) link(a, b uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createPair(a, b)
}

func (m *memStore) createPair(a, b uint) {
	for _, e := range [][2]uint{{a, b}, {b, a}} {
		exists := false
		for _, l := range m.links {
			if l.UserID == e[0] && l.FriendID == e[1] {
				exists = true
			}
		}
		if !exists {
			l := models.FriendLink{UserID: e[0], FriendID: e[1]}
			m.stamp(&l.BaseModel)
			m.links = append(m.links, l)
		}
	}
}

func (m *memStore) profile(id uint) models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[id]
}

func (m *memStore) offlineFriend(id uint) models.OfflineFriend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offline[id]
}

func (m *memStore) proposal(id uint) models.AuraProposal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proposals[id]
}

func (m *memStore) votesFor(proposalID uint) []models.ProposalVote {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ProposalVote
	for _, v := range m.votes {
		if v.ProposalID == proposalID {
			out = append(out, v)
		}
	}
	return out
}

func (m *memStore) proposalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.proposals)
}

type snapshot struct {
	nextID    uint
	profiles  map[uint]models.Profile
	offline   map[uint]models.OfflineFriend
	links     []models.FriendLink
	requests  map[uint]models.FriendRequest
	proposals map[uint]models.AuraProposal
	votes     []models.ProposalVote
}

func (m *memStore) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := snapshot{
		nextID:    m.nextID,
		profiles:  map[uint]models.Profile{},
		offline:   map[uint]models.OfflineFriend{},
		links:     append([]models.FriendLink(nil), m.links...),
		requests:  map[uint]models.FriendRequest{},
		proposals: map[uint]models.AuraProposal{},
		votes:     append([]models.ProposalVote(nil), m.votes...),
	}
	for k, v := range m.profiles {
		s.profiles[k] = v
	}
	for k, v := range m.offline {
		s.offline[k] = v
	}
	for k, v := range m.requests {
		s.requests[k] = v
	}
	for k, v := range m.proposals {
		s.proposals[k] = v
	}
	return s
}

func (m *memStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID = s.nextID
	m.profiles = s.profiles
	m.offline = s.offline
	m.links = s.links
	m.requests = s.requests
	m.proposals = s.proposals
	m.votes = s.votes
}

func (m *memStore) WithinTransaction(ctx context.Context, fn func(repos storage.Repositories) error) error {
	snap := m.snapshot()
	if err := fn(m.repos()); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// profiles

type memProfiles struct{ m *memStore }

func (r memProfiles) Create(ctx context.Context, p *models.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("profiles.create"); err != nil {
		return err
	}
	for _, existing := range r.m.profiles {
		if existing.Username == p.Username || existing.Email == p.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.m.stamp(&p.BaseModel)
	r.m.profiles[p.ID] = *p
	return nil
}

func (r memProfiles) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("profiles.get"); err != nil {
		return nil, err
	}
	p, ok := r.m.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r memProfiles) find(match func(models.Profile) bool) (*models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.profiles {
		if match(p) {
			found := p
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memProfiles) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return r.find(func(p models.Profile) bool { return p.Username == username })
}

func (r memProfiles) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.find(func(p models.Profile) bool { return p.Email == email })
}

func (r memProfiles) GetByIDs(ctx context.Context, ids []uint) ([]models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Profile
	for _, id := range ids {
		if p, ok := r.m.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProfiles) Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Profile
	for _, p := range r.m.sortedProfiles() {
		if p.ID != excludeID && strings.Contains(strings.ToLower(p.Username), strings.ToLower(query)) && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProfiles) UpdateAvatar(ctx context.Context, id uint, avatar string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("profiles.update_avatar"); err != nil {
		return err
	}
	p, ok := r.m.profiles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Avatar = avatar
	r.m.profiles[id] = p
	return nil
}

func (r memProfiles) TopByAura(ctx context.Context, limit int) ([]models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("profiles.top"); err != nil {
		return nil, err
	}
	all := r.m.sortedProfiles()
	sort.SliceStable(all, func(i, j int) bool { return all[i].Aura > all[j].Aura })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r memProfiles) AddAura(ctx context.Context, id uint, delta int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("profiles.add_aura"); err != nil {
		return err
	}
	p, ok := r.m.profiles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Aura += delta
	r.m.profiles[id] = p
	return nil
}

func (m *memStore) sortedProfiles() []models.Profile {
	out := make([]models.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// offline friends

type memOffline struct{ m *memStore }

func (r memOffline) Create(ctx context.Context, f *models.OfflineFriend) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.stamp(&f.BaseModel)
	r.m.offline[f.ID] = *f
	return nil
}

func (r memOffline) GetByID(ctx context.Context, id uint) (*models.OfflineFriend, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.offline[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &f, nil
}

func (r memOffline) GetByIDs(ctx context.Context, ids []uint) ([]models.OfflineFriend, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.OfflineFriend
	for _, id := range ids {
		if f, ok := r.m.offline[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r memOffline) ListByCreator(ctx context.Context, creatorID uint) ([]models.OfflineFriend, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.OfflineFriend
	for _, f := range r.m.offline {
		if f.CreatorID == creatorID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memOffline) DeleteByCreator(ctx context.Context, id, creatorID uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.offline[id]
	if !ok || f.CreatorID != creatorID {
		return false, nil
	}
	delete(r.m.offline, id)
	return true, nil
}

func (r memOffline) AddAura(ctx context.Context, id uint, delta int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.offline[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.Aura += delta
	r.m.offline[id] = f
	return nil
}

// friend links

type memLinks struct{ m *memStore }

func (r memLinks) CreatePair(ctx context.Context, a, b uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("links.create"); err != nil {
		return err
	}
	r.m.createPair(a, b)
	return nil
}

func (r memLinks) AreFriends(ctx context.Context, userID, friendID uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, l := range r.m.links {
		if l.UserID == userID && l.FriendID == friendID {
			return true, nil
		}
	}
	return false, nil
}

func (r memLinks) ListFriends(ctx context.Context, userID uint) ([]models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Profile
	for _, l := range r.m.links {
		if l.UserID == userID {
			if p, ok := r.m.profiles[l.FriendID]; ok {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r memLinks) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []uint
	for _, l := range r.m.links {
		if l.UserID == userID {
			out = append(out, l.FriendID)
		}
	}
	return out, nil
}

// friend requests

type memRequests struct{ m *memStore }

func (r memRequests) Create(ctx context.Context, req *models.FriendRequest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("requests.create"); err != nil {
		return err
	}
	r.m.stamp(&req.BaseModel)
	r.m.requests[req.ID] = *req
	return nil
}

func (r memRequests) FindPendingBetween(ctx context.Context, a, b uint) (*models.FriendRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, req := range r.m.requests {
		between := (req.SenderID == a && req.RecipientID == b) || (req.SenderID == b && req.RecipientID == a)
		if between && req.Status == models.FriendRequestStatusPending {
			found := req
			return &found, nil
		}
	}
	return nil, nil
}

func (r memRequests) GetByID(ctx context.Context, id uint) (*models.FriendRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &req, nil
}

func (r memRequests) UpdateStatusIfPending(ctx context.Context, id uint, status models.FriendRequestStatus) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.requests[id]
	if !ok || req.Status != models.FriendRequestStatusPending {
		return false, nil
	}
	req.Status = status
	r.m.requests[id] = req
	return true, nil
}

func (r memRequests) ListPendingForUser(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.FriendRequest
	for _, req := range r.m.requests {
		if req.Status == models.FriendRequestStatusPending && (req.SenderID == userID || req.RecipientID == userID) {
			sender, recipient := r.m.profiles[req.SenderID], r.m.profiles[req.RecipientID]
			req.Sender, req.Recipient = &sender, &recipient
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memRequests) CountPendingForRecipient(ctx context.Context, recipientID uint) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, req := range r.m.requests {
		if req.Status == models.FriendRequestStatusPending && req.RecipientID == recipientID {
			n++
		}
	}
	return n, nil
}

// proposals

type memProposals struct{ m *memStore }

func (r memProposals) Create(ctx context.Context, p *models.AuraProposal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("proposals.create"); err != nil {
		return err
	}
	r.m.stamp(&p.BaseModel)
	r.m.proposals[p.ID] = *p
	return nil
}

func (r memProposals) GetByID(ctx context.Context, id uint) (*models.AuraProposal, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("proposals.get"); err != nil {
		return nil, err
	}
	p, ok := r.m.proposals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r memProposals) list(match func(models.AuraProposal) bool, newestFirst bool) []models.AuraProposal {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.AuraProposal
	for _, p := range r.m.proposals {
		if match(p) {
			if proposer, ok := r.m.profiles[p.ProposerID]; ok {
				p.Proposer = &proposer
			}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r memProposals) ListPending(ctx context.Context) ([]models.AuraProposal, error) {
	return r.list(func(p models.AuraProposal) bool { return p.Status == models.ProposalStatusPending }, false), nil
}

func (r memProposals) ListVisibleTo(ctx context.Context, ids []uint) ([]models.AuraProposal, error) {
	in := map[uint]bool{}
	for _, id := range ids {
		in[id] = true
	}
	return r.list(func(p models.AuraProposal) bool {
		return in[p.ProposerID] || (!p.IsRecipientOffline && in[p.RecipientID])
	}, true), nil
}

func (r memProposals) ListForRecipient(ctx context.Context, recipientID uint, offline bool) ([]models.AuraProposal, error) {
	return r.list(func(p models.AuraProposal) bool {
		return p.RecipientID == recipientID && p.IsRecipientOffline == offline
	}, true), nil
}

func (r memProposals) Resolve(ctx context.Context, id uint, status models.ProposalStatus, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.proposals[id]
	if !ok || p.Status != models.ProposalStatusPending {
		return false, nil
	}
	p.Status = status
	p.ResolvedAt = &at
	r.m.proposals[id] = p
	return true, nil
}

// votes

type memVotes struct{ m *memStore }

func (r memVotes) Upsert(ctx context.Context, v *models.ProposalVote) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("votes.upsert"); err != nil {
		return err
	}
	for i, existing := range r.m.votes {
		if existing.ProposalID == v.ProposalID && existing.VoterID == v.VoterID {
			r.m.votes[i].Vote = v.Vote
			v.ID = existing.ID
			return nil
		}
	}
	r.m.stamp(&v.BaseModel)
	r.m.votes = append(r.m.votes, *v)
	return nil
}

func (r memVotes) Get(ctx context.Context, proposalID, voterID uint) (*models.ProposalVote, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, v := range r.m.votes {
		if v.ProposalID == proposalID && v.VoterID == voterID {
			found := v
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memVotes) ListByProposal(ctx context.Context, proposalID uint) ([]models.ProposalVote, error) {
	return r.m.votesFor(proposalID), nil
}

func (r memVotes) ListByProposals(ctx context.Context, ids []uint) ([]models.ProposalVote, error) {
	var out []models.ProposalVote
	for _, id := range ids {
		out = append(out, r.m.votesFor(id)...)
	}
	return out, nil
}

// collaborators

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

func (p *recordingPublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type memCache struct {
	mu          sync.Mutex
	entries     []leaderboard.Entry
	cached      bool
	invalidated int
	sets        int
}

func (c *memCache) Get(ctx context.Context) ([]leaderboard.Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries, c.cached, nil
}

func (c *memCache) Set(ctx context.Context, entries []leaderboard.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries, c.cached = entries, true
	c.sets++
	return nil
}

func (c *memCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries, c.cached = nil, false
	c.invalidated++
	return nil
}
