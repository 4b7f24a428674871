package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"battleship/internal/domain"
	"battleship/internal/game"
	"battleship/internal/logger"
	"battleship/internal/metrics"
)

// State - этап жизненного цикла сессии
type State string

const (
	StateWaiting           State = "waiting_for_opponent"
	StateAwaitingPlacement State = "awaiting_placement"
	StateInProgress        State = "in_progress"
	StateFinished          State = "finished"
	StateAbandoned         State = "abandoned"
)

// конфликты очередности и состояния; оба оборачивают game.ErrInvalidMove
var (
	ErrOutOfTurn  = fmt.Errorf("%w: not your turn", game.ErrInvalidMove)
	ErrWrongState = fmt.Errorf("%w: wrong session state", game.ErrInvalidMove)
)

// AIName - отображаемое имя бота в партиях vs_ai
const AIName = "computer"

const (
	defaultAIAttempts = 5
	recordTimeout     = 5 * time.Second
)

// ResultRecorder получает итоги завершенных партий. Вызывается вне блокировок
type ResultRecorder interface {
	Record(ctx context.Context, r domain.MatchResult) error
}

type Options struct {
	BoardSize int
	// окно переподключения; 0 - сессия закрывается сразу при обрыве
	ReconnectGrace time.Duration
	Tokens         *TokenIssuer
	Recorder       ResultRecorder
	NewRand        func() game.Rand
	// сколько раз ИИ может предложить недопустимую клетку до аварийного завершения
	AIAttempts int
}

type targeter interface {
	Next(attacked [][]bool) (game.Coord, error)
	RegisterResult(x, y int, hit bool)
	OnShipSunk()
}

type JoinResult struct {
	GameID       string    `json:"game_id,omitempty"`
	Waiting      bool      `json:"waiting"`
	Side         game.Side `json:"side"`
	OpponentName string    `json:"opponent_name,omitempty"`
	Token        string    `json:"token,omitempty"`
}

// ShotResult - разрешенный выстрел одной стороны
type ShotResult struct {
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Hit      bool      `json:"hit"`
	Sunk     bool      `json:"sunk"`
	SunkShip string    `json:"sunk_ship,omitempty"`
	By       game.Side `json:"by"`
	GameOver bool      `json:"game_over"`
	Winner   string    `json:"winner,omitempty"`
}

// AttackResult - выстрел игрока и, в режиме vs_ai, немедленный ответ бота.
// GameOver и Winner отражают состояние после обоих ходов
type AttackResult struct {
	ShotResult
	OpponentMove *ShotResult `json:"opponent_move,omitempty"`
}

type entry struct {
	mu           sync.Mutex
	game         *game.MultiplayerGame
	state        State
	ai           targeter
	lastActivity time.Time
	finishedAt   time.Time
	timers       [2]*time.Timer
	seq          uint64
	// итог для архива, передается после снятия блокировки
	pending *domain.MatchResult

	// читается под блокировкой реестра без захвата mu
	done atomic.Bool

	outMu    sync.Mutex
	outbox   []Notification
	flushing bool
}

// enqueue ставит уведомление в очередь сессии. Вызывается под e.mu,
// поэтому порядок в очереди совпадает с порядком применения операций
func (e *entry) enqueue(to string, typ EventType, payload any) {
	if to == "" {
		return
	}
	e.seq++
	n := Notification{To: to, Type: typ, GameID: e.game.ID, Seq: e.seq, Payload: payload}
	e.outMu.Lock()
	e.outbox = append(e.outbox, n)
	e.outMu.Unlock()
}

func (e *entry) stopTimer(s game.Side) {
	i := int(s) - 1
	if i < 0 || i > 1 || e.timers[i] == nil {
		return
	}
	e.timers[i].Stop()
	e.timers[i] = nil
}

// Registry - процессный реестр сессий. Блокировки: сначала mu сессии,
// затем r.mu; никогда наоборот
type Registry struct {
	opts     Options
	notifier Notifier
	newAI    func(rnd game.Rand) targeter
	now      func() time.Time

	// число записей в архив, которые еще выполняются
	recording atomic.Int64

	mu       sync.RWMutex
	sessions map[string]*entry
	connGame map[string]string
	waiting  []string
	names    map[string]string
}

func NewRegistry(opts Options, notifier Notifier) *Registry {
	if opts.BoardSize <= 0 {
		opts.BoardSize = game.DefaultBoardSize
	}
	if opts.NewRand == nil {
		opts.NewRand = game.NewRand
	}
	if opts.AIAttempts <= 0 {
		opts.AIAttempts = defaultAIAttempts
	}
	if notifier == nil {
		notifier = Discard
	}
	return &Registry{
		opts:     opts,
		notifier: notifier,
		newAI:    func(rnd game.Rand) targeter { return game.NewTargetingAI(rnd) },
		now:      time.Now,
		sessions: make(map[string]*entry),
		connGame: make(map[string]string),
		names:    make(map[string]string),
	}
}

func (r *Registry) BoardSize() int { return r.opts.BoardSize }

func (r *Registry) get(gameID string) (*entry, error) {
	r.mu.RLock()
	e := r.sessions[gameID]
	r.mu.RUnlock()
	if e == nil {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	return e, nil
}

// release снимает блокировку сессии, доставляет накопленные уведомления
// и передает итог партии в архив
func (r *Registry) release(e *entry) {
	res := e.pending
	e.pending = nil
	e.mu.Unlock()

	r.flush(e)
	if res != nil {
		r.record(*res)
	}
}

func (r *Registry) flush(e *entry) {
	e.outMu.Lock()
	if e.flushing {
		e.outMu.Unlock()
		return
	}
	e.flushing = true
	for len(e.outbox) > 0 {
		batch := e.outbox
		e.outbox = nil
		e.outMu.Unlock()
		for _, n := range batch {
			r.notifier.Notify(n)
		}
		e.outMu.Lock()
	}
	e.flushing = false
	e.outMu.Unlock()
}

func (r *Registry) record(res domain.MatchResult) {
	metrics.SessionsEnded.WithLabelValues(res.Reason).Inc()
	logger.ForGame(res.GameID).Info("session ended",
		"reason", res.Reason, "winner", res.Winner, "shots", res.Shots)

	if r.opts.Recorder == nil {
		return
	}
	r.recording.Add(1)
	go func() {
		defer r.recording.Add(-1)
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.opts.Recorder.Record(ctx, res); err != nil {
			logger.ForGame(res.GameID).Error("record match result", "error", err)
		}
	}()
}

// WaitRecorded ждет, пока итоги партий допишутся в архив. Вызывается при
// остановке до закрытия пула БД
func (r *Registry) WaitRecorded(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for r.recording.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// liveLocked: соединение привязано к незавершенной сессии. Под r.mu
func (r *Registry) liveLocked(conn string) bool {
	gid, ok := r.connGame[conn]
	if !ok {
		return false
	}
	e := r.sessions[gid]
	return e != nil && !e.done.Load()
}

func (r *Registry) dequeueLocked(conn string) bool {
	for i, c := range r.waiting {
		if c == conn {
			r.waiting = append(r.waiting[:i], r.waiting[i+1:]...)
			metrics.WaitingPlayers.Set(float64(len(r.waiting)))
			return true
		}
	}
	return false
}

// forgetNameLocked удаляет имя соединения, если оно больше нигде не участвует
func (r *Registry) forgetNameLocked(conn string) {
	if _, ok := r.connGame[conn]; ok {
		return
	}
	for _, c := range r.waiting {
		if c == conn {
			return
		}
	}
	delete(r.names, conn)
}

func (r *Registry) issueToken(gameID string, s game.Side) string {
	if r.opts.Tokens == nil {
		return ""
	}
	tok, err := r.opts.Tokens.Issue(gameID, s)
	if err != nil {
		logger.ForGame(gameID).Warn("issue reconnect token", "error", err)
		return ""
	}
	return tok
}

// Join ставит соединение в очередь или сводит его с самым давним ожидающим
func (r *Registry) Join(conn, name string) (JoinResult, error) {
	if conn == "" {
		return JoinResult{}, fmt.Errorf("%w: empty connection id", game.ErrInvalidMove)
	}

	r.mu.Lock()
	if r.liveLocked(conn) {
		r.mu.Unlock()
		metrics.Rejected.WithLabelValues("join", "in_game").Inc()
		return JoinResult{}, fmt.Errorf("%w: connection already in a game", game.ErrInvalidMove)
	}
	delete(r.connGame, conn)
	r.names[conn] = name

	for _, c := range r.waiting {
		if c == conn {
			r.mu.Unlock()
			return JoinResult{Waiting: true}, nil
		}
	}

	if len(r.waiting) == 0 {
		r.waiting = append(r.waiting, conn)
		metrics.WaitingPlayers.Set(float64(len(r.waiting)))
		r.mu.Unlock()

		logger.ForConn(conn).Info("player waiting", "name", name)
		r.notifier.Notify(Notification{To: conn, Type: EventWaiting})
		return JoinResult{Waiting: true}, nil
	}

	opp := r.waiting[0]
	r.waiting = r.waiting[1:]
	oppName := r.names[opp]

	g := game.NewMultiplayerGame(r.opts.BoardSize, game.ModeMultiplayer, opp, oppName, conn, name)
	now := r.now()
	e := &entry{game: g, state: StateAwaitingPlacement, lastActivity: now}

	tok1 := r.issueToken(g.ID, game.Side1)
	tok2 := r.issueToken(g.ID, game.Side2)
	e.enqueue(opp, EventOpponentJoined, JoinedPayload{OpponentName: name, Side: game.Side1.String(), Token: tok1})
	e.enqueue(conn, EventGameJoined, JoinedPayload{OpponentName: oppName, Side: game.Side2.String(), Token: tok2})

	r.sessions[g.ID] = e
	r.connGame[opp] = g.ID
	r.connGame[conn] = g.ID
	metrics.WaitingPlayers.Set(float64(len(r.waiting)))
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	metrics.GamesCreated.WithLabelValues(string(game.ModeMultiplayer)).Inc()
	logger.ForGame(g.ID).Info("players paired", "player1", oppName, "player2", name)
	r.flush(e)

	return JoinResult{GameID: g.ID, Side: game.Side2, OpponentName: oppName, Token: tok2}, nil
}

// PlaceShips заменяет поле стороны проверенной расстановкой
func (r *Registry) PlaceShips(conn, gameID string, placements []game.ShipPlacement) error {
	e, err := r.get(gameID)
	if err != nil {
		return err
	}

	// проверка на чистом поле до захвата блокировки
	board, err := game.BuildBoard(r.opts.BoardSize, placements)
	if err != nil {
		metrics.Rejected.WithLabelValues("place_ships", "invalid_fleet").Inc()
		return err
	}

	e.mu.Lock()
	defer r.release(e)

	side := e.game.SideOf(conn)
	if side == game.NoSide {
		return fmt.Errorf("%w: connection is not part of game %s", game.ErrNotFound, gameID)
	}
	if e.state != StateAwaitingPlacement {
		metrics.Rejected.WithLabelValues("place_ships", "wrong_state").Inc()
		return fmt.Errorf("%w: ships cannot be placed, game is %s", ErrWrongState, e.state)
	}

	if board.Size != e.game.BoardOf(side).Size {
		return fmt.Errorf("%w: board size mismatch", game.ErrInvariantViolation)
	}
	e.game.SetBoard(side, board)
	e.lastActivity = r.now()

	p := e.game.Player(side)
	opp := e.game.Player(side.Opponent())
	if !p.Ready {
		p.Ready = true
		e.enqueue(opp.ConnID, EventOpponentReady, ReadyPayload{OpponentName: p.Name})
	}

	if e.game.BothReady() {
		e.state = StateInProgress
		e.game.Turn = game.Side1
		for _, s := range []game.Side{game.Side1, game.Side2} {
			e.enqueue(e.game.Player(s).ConnID, EventGameStarted, StartedPayload{
				Turn:     e.game.Turn.String(),
				YourTurn: e.game.Turn == s,
			})
		}
		logger.ForGame(gameID).Info("game started")
	}
	return nil
}

// Attack разрешает выстрел владельца хода. В режиме vs_ai бот отвечает
// в той же критической секции
func (r *Registry) Attack(conn, gameID string, x, y int) (AttackResult, error) {
	e, err := r.get(gameID)
	if err != nil {
		return AttackResult{}, err
	}

	e.mu.Lock()
	defer r.release(e)

	side := e.game.SideOf(conn)
	if side == game.NoSide {
		return AttackResult{}, fmt.Errorf("%w: connection is not part of game %s", game.ErrNotFound, gameID)
	}
	if e.state != StateInProgress {
		metrics.Rejected.WithLabelValues("attack", "wrong_state").Inc()
		return AttackResult{}, fmt.Errorf("%w: game is %s", ErrWrongState, e.state)
	}
	if e.game.Turn != side {
		metrics.Rejected.WithLabelValues("attack", "not_your_turn").Inc()
		return AttackResult{}, ErrOutOfTurn
	}
	target := e.game.TargetBoardOf(side)
	c := target.Cell(x, y)
	if c == nil {
		metrics.Rejected.WithLabelValues("attack", "out_of_bounds").Inc()
		return AttackResult{}, fmt.Errorf("%w: (%d,%d) is outside the board", game.ErrInvalidMove, x, y)
	}
	if c.IsHit {
		metrics.Rejected.WithLabelValues("attack", "already_attacked").Inc()
		return AttackResult{}, fmt.Errorf("%w: (%d,%d) already attacked", game.ErrInvalidMove, x, y)
	}

	res := AttackResult{ShotResult: r.resolveLocked(e, side, x, y)}

	if e.game.Mode == game.ModeVsAI && e.state == StateInProgress {
		move, err := r.aiMoveLocked(e)
		if err != nil {
			return res, err
		}
		res.OpponentMove = &move
		res.GameOver = move.GameOver
		res.Winner = move.Winner
	}
	return res, nil
}

// resolveLocked применяет уже проверенный выстрел стороны by
func (r *Registry) resolveLocked(e *entry, by game.Side, x, y int) ShotResult {
	g := e.game
	target := g.TargetBoardOf(by)

	out := target.Attack(x, y)
	shot := ShotResult{X: x, Y: y, Hit: out.Hit, By: by}
	if out.Hit {
		if ship := target.ShipAt(x, y); ship != nil && ship.IsSunk(target) {
			target.MarkSunk(x, y)
			shot.Sunk = true
			shot.SunkShip = ship.Type.String()
		}
	}
	g.Record(x, y, shot.Hit, shot.Sunk, by)
	e.lastActivity = r.now()

	switch {
	case shot.Sunk:
		metrics.Attacks.WithLabelValues("sunk").Inc()
	case shot.Hit:
		metrics.Attacks.WithLabelValues("hit").Inc()
	default:
		metrics.Attacks.WithLabelValues("miss").Inc()
	}

	attacker := g.Player(by)
	defender := g.Player(by.Opponent())

	if g.GameOver() {
		shot.GameOver = true
		shot.Winner = g.WinnerName()
	}
	e.enqueue(attacker.ConnID, EventAttackResult, shot)
	e.enqueue(defender.ConnID, EventOpponentAttacked, shot)

	if shot.GameOver {
		r.endLocked(e, StateFinished, domain.MatchReasonCompleted)
		winner := g.Winner()
		e.enqueue(g.Player(winner).ConnID, EventGameWon, OutcomePayload{Winner: shot.Winner})
		e.enqueue(g.Player(winner.Opponent()).ConnID, EventGameLost, OutcomePayload{Winner: shot.Winner})
		return shot
	}

	g.Turn = by.Opponent()
	e.enqueue(defender.ConnID, EventYourTurn, nil)
	return shot
}

// aiMoveLocked - ход бота (всегда Side2) по полю игрока
func (r *Registry) aiMoveLocked(e *entry) (ShotResult, error) {
	board := e.game.BoardOf(game.Side1)
	mask := board.AttackedMask()

	var lastErr error
	for attempt := 0; attempt < r.opts.AIAttempts; attempt++ {
		c, err := e.ai.Next(mask)
		if err != nil {
			lastErr = err
			if errors.Is(err, game.ErrInvariantViolation) {
				break
			}
			continue
		}
		if !board.InBounds(c.X, c.Y) || mask[c.X][c.Y] {
			lastErr = fmt.Errorf("%w: ai proposed illegal cell (%d,%d)", game.ErrInvariantViolation, c.X, c.Y)
			continue
		}

		shot := r.resolveLocked(e, game.Side2, c.X, c.Y)
		e.ai.RegisterResult(c.X, c.Y, shot.Hit)
		if shot.Sunk {
			e.ai.OnShipSunk()
		}
		return shot, nil
	}

	if lastErr == nil {
		lastErr = game.ErrInvariantViolation
	}
	logger.ForGame(e.game.ID).Error("ai failed to move, aborting session", "error", lastErr)
	r.endLocked(e, StateAbandoned, domain.MatchReasonAborted)
	e.enqueue(e.game.Player(game.Side1).ConnID, EventSessionAborted, AbortPayload{Reason: "internal error"})
	if !errors.Is(lastErr, game.ErrInvariantViolation) {
		lastErr = fmt.Errorf("%w: %v", game.ErrInvariantViolation, lastErr)
	}
	return ShotResult{}, lastErr
}

// endLocked переводит сессию в конечное состояние и готовит запись для архива
func (r *Registry) endLocked(e *entry, state State, reason string) {
	if e.done.Load() {
		return
	}
	g := e.game
	e.state = state
	e.finishedAt = r.now()
	e.done.Store(true)
	e.stopTimer(game.Side1)
	e.stopTimer(game.Side2)

	res := &domain.MatchResult{
		GameID:     g.ID,
		Mode:       string(g.Mode),
		Player1:    g.Players[0].Name,
		Player2:    g.Players[1].Name,
		Reason:     reason,
		Shots:      len(g.History),
		StartedAt:  g.CreatedAt,
		FinishedAt: e.finishedAt.UTC(),
	}
	if state == StateFinished {
		res.Winner = g.WinnerName()
		res.WinnerSide = int(g.Winner())
	}
	e.pending = res
}

// StartSolo создает партию против бота. Пустая расстановка - флот игрока
// тоже расставляется случайно
func (r *Registry) StartSolo(conn, name string, placements []game.ShipPlacement) (JoinResult, error) {
	if conn == "" {
		return JoinResult{}, fmt.Errorf("%w: empty connection id", game.ErrInvalidMove)
	}

	rnd := r.opts.NewRand()
	var (
		human *game.Board
		err   error
	)
	if len(placements) == 0 {
		human, err = game.RandomFleet(r.opts.BoardSize, rnd)
	} else {
		human, err = game.BuildBoard(r.opts.BoardSize, placements)
	}
	if err != nil {
		metrics.Rejected.WithLabelValues("start_solo", "invalid_fleet").Inc()
		return JoinResult{}, err
	}
	bot, err := game.RandomFleet(r.opts.BoardSize, rnd)
	if err != nil {
		return JoinResult{}, err
	}

	g := game.NewMultiplayerGame(r.opts.BoardSize, game.ModeVsAI, conn, name, "", AIName)
	g.SetBoard(game.Side1, human)
	g.SetBoard(game.Side2, bot)
	g.Players[0].Ready = true
	g.Players[1].Ready = true

	e := &entry{game: g, state: StateInProgress, ai: r.newAI(rnd), lastActivity: r.now()}
	tok := r.issueToken(g.ID, game.Side1)
	e.enqueue(conn, EventGameStarted, StartedPayload{Turn: game.Side1.String(), YourTurn: true})

	r.mu.Lock()
	if r.liveLocked(conn) {
		r.mu.Unlock()
		metrics.Rejected.WithLabelValues("start_solo", "in_game").Inc()
		return JoinResult{}, fmt.Errorf("%w: connection already in a game", game.ErrInvalidMove)
	}
	r.dequeueLocked(conn)
	r.names[conn] = name
	r.sessions[g.ID] = e
	r.connGame[conn] = g.ID
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	metrics.GamesCreated.WithLabelValues(string(game.ModeVsAI)).Inc()
	logger.ForGame(g.ID).Info("solo game started", "player", name)
	r.flush(e)

	return JoinResult{GameID: g.ID, Side: game.Side1, OpponentName: AIName, Token: tok}, nil
}

// Reconnect переносит сторону с совпадающим именем на новое соединение.
// Если имя совпадает у обеих сторон, выбирается отключенная; иначе отказ
func (r *Registry) Reconnect(conn, gameID, name string) bool {
	e, err := r.get(gameID)
	if err != nil || conn == "" {
		return false
	}

	e.mu.Lock()
	defer r.release(e)

	if e.state == StateAbandoned {
		return false
	}

	var matches []game.Side
	for _, s := range []game.Side{game.Side1, game.Side2} {
		if e.game.Mode == game.ModeVsAI && s == game.Side2 {
			continue
		}
		if e.game.Player(s).Name == name {
			matches = append(matches, s)
		}
	}

	side := game.NoSide
	switch len(matches) {
	case 1:
		side = matches[0]
	case 2:
		d1 := e.game.Player(game.Side1).Disconnected
		d2 := e.game.Player(game.Side2).Disconnected
		switch {
		case d1 && !d2:
			side = game.Side1
		case d2 && !d1:
			side = game.Side2
		}
	}
	if side == game.NoSide {
		metrics.Rejected.WithLabelValues("reconnect", "no_match").Inc()
		return false
	}
	return r.rebindLocked(e, side, conn)
}

// ReconnectWithToken - то же, сторона берется из подписанного токена
func (r *Registry) ReconnectWithToken(conn, token string) (string, error) {
	if r.opts.Tokens == nil {
		return "", fmt.Errorf("%w: reconnect tokens are disabled", game.ErrInvalidMove)
	}
	gameID, side, err := r.opts.Tokens.Parse(token)
	if err != nil {
		metrics.Rejected.WithLabelValues("reconnect", "bad_token").Inc()
		return "", err
	}
	e, err := r.get(gameID)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer r.release(e)

	if e.state == StateAbandoned {
		return "", fmt.Errorf("%w: game %s was abandoned", ErrWrongState, gameID)
	}
	if !r.rebindLocked(e, side, conn) {
		return "", fmt.Errorf("%w: connection cannot take side %s", game.ErrInvalidMove, side)
	}
	return gameID, nil
}

// rebindLocked переносит сторону на conn. Соединение, уже занимающее
// другую сторону этой партии, не может забрать вторую
func (r *Registry) rebindLocked(e *entry, side game.Side, conn string) bool {
	if cur := e.game.SideOf(conn); cur != game.NoSide && cur != side {
		metrics.Rejected.WithLabelValues("reconnect", "other_side").Inc()
		return false
	}
	p := e.game.Player(side)
	gameID := e.game.ID
	old := p.ConnID

	r.mu.Lock()
	if gid, ok := r.connGame[conn]; ok && gid != gameID && r.liveLocked(conn) {
		r.mu.Unlock()
		return false
	}
	if old != conn && r.connGame[old] == gameID {
		delete(r.connGame, old)
	}
	r.connGame[conn] = gameID
	r.names[conn] = p.Name
	r.dequeueLocked(conn)
	if old != conn {
		r.forgetNameLocked(old)
	}
	r.mu.Unlock()

	e.stopTimer(side)
	wasDisconnected := p.Disconnected
	p.ConnID = conn
	p.Disconnected = false
	e.lastActivity = r.now()

	if old != conn || wasDisconnected {
		e.enqueue(e.game.Player(side.Opponent()).ConnID, EventOpponentReconnected, ReadyPayload{OpponentName: p.Name})
	}
	logger.ForGame(gameID).Info("player reconnected", "side", side.String(), "conn_id", conn)
	return true
}

// Disconnect убирает соединение из очереди и закрывает (или ставит на паузу) его сессию
func (r *Registry) Disconnect(conn string) {
	r.mu.Lock()
	r.dequeueLocked(conn)
	gid, ok := r.connGame[conn]
	delete(r.connGame, conn)
	e := r.sessions[gid]
	// имя живет, пока жива сессия: по нему идет переподключение
	if e == nil {
		delete(r.names, conn)
	}
	r.mu.Unlock()

	if !ok || e == nil {
		return
	}

	e.mu.Lock()
	defer r.release(e)

	side := e.game.SideOf(conn)
	if side == game.NoSide || e.done.Load() {
		return
	}
	p := e.game.Player(side)
	opp := e.game.Player(side.Opponent())

	grace := r.opts.ReconnectGrace
	if grace <= 0 {
		r.endLocked(e, StateAbandoned, domain.MatchReasonAbandoned)
		e.enqueue(opp.ConnID, EventOpponentDisconnected, DisconnectPayload{OpponentName: p.Name})
		return
	}

	p.Disconnected = true
	e.stopTimer(side)
	e.timers[int(side)-1] = time.AfterFunc(grace, func() {
		r.expireGrace(gid, side, conn)
	})
	e.enqueue(opp.ConnID, EventOpponentDisconnected, DisconnectPayload{
		OpponentName: p.Name,
		GraceSeconds: int(grace / time.Second),
	})
	logger.ForGame(gid).Info("player disconnected, waiting for reconnect", "side", side.String(), "grace", grace)
}

// expireGrace закрывает сессию, если сторона так и не переподключилась
func (r *Registry) expireGrace(gameID string, side game.Side, conn string) {
	e, err := r.get(gameID)
	if err != nil {
		return
	}

	e.mu.Lock()
	defer r.release(e)

	p := e.game.Player(side)
	if e.done.Load() || !p.Disconnected || p.ConnID != conn {
		return
	}
	r.endLocked(e, StateAbandoned, domain.MatchReasonAbandoned)
	e.enqueue(e.game.Player(side.Opponent()).ConnID, EventOpponentDisconnected, DisconnectPayload{OpponentName: p.Name})
}

// StateByConnection - снимок партии соединения; для ожидающего в очереди
// возвращается пустой снимок в состоянии waiting_for_opponent
func (r *Registry) StateByConnection(conn string) (GameView, error) {
	r.mu.RLock()
	gid, ok := r.connGame[conn]
	var e *entry
	if ok {
		e = r.sessions[gid]
	}
	waiting := false
	if e == nil {
		for _, c := range r.waiting {
			if c == conn {
				waiting = true
				break
			}
		}
	}
	r.mu.RUnlock()

	if waiting {
		return GameView{State: StateWaiting}, nil
	}
	if e == nil {
		return GameView{}, fmt.Errorf("%w: connection %s has no game", game.ErrNotFound, conn)
	}

	e.mu.Lock()
	defer r.release(e)

	side := e.game.SideOf(conn)
	if side == game.NoSide {
		return GameView{}, fmt.Errorf("%w: connection %s has no game", game.ErrNotFound, conn)
	}
	v := r.viewLocked(e, side)
	if e.state != StateAbandoned {
		v.ReconnectToken = r.issueToken(e.game.ID, side)
	}
	return v, nil
}

// StateByGame - снимок для наблюдателя: корабли обеих сторон скрыты
func (r *Registry) StateByGame(gameID string) (GameView, error) {
	e, err := r.get(gameID)
	if err != nil {
		return GameView{}, err
	}
	e.mu.Lock()
	defer r.release(e)
	return r.viewLocked(e, game.NoSide), nil
}

// GameIDByConnection возвращает партию соединения
func (r *Registry) GameIDByConnection(conn string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gid, ok := r.connGame[conn]
	return gid, ok
}

func (r *Registry) Counts() (sessions, waiting int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), len(r.waiting)
}

// StartCleanup периодически удаляет завершенные сессии старше maxAge
// и закрывает живые, простаивающие дольше maxAge
func (r *Registry) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Cleanup(maxAge); n > 0 {
					logger.Debug("sessions cleaned up", "removed", n)
				}
			}
		}
	}()
}

type staleSession struct {
	id    string
	conns [2]string
}

// Cleanup выполняет один проход очистки и возвращает число удаленных сессий
func (r *Registry) Cleanup(maxAge time.Duration) int {
	r.mu.RLock()
	list := make([]*entry, 0, len(r.sessions))
	for _, e := range r.sessions {
		list = append(list, e)
	}
	r.mu.RUnlock()

	cutoff := r.now().Add(-maxAge)
	var stale []staleSession
	for _, e := range list {
		e.mu.Lock()
		switch {
		case !e.done.Load() && e.lastActivity.Before(cutoff):
			r.endLocked(e, StateAbandoned, domain.MatchReasonExpired)
			for _, p := range e.game.Players {
				e.enqueue(p.ConnID, EventSessionAborted, AbortPayload{Reason: "expired"})
			}
		case e.done.Load() && e.finishedAt.Before(cutoff):
			stale = append(stale, staleSession{
				id:    e.game.ID,
				conns: [2]string{e.game.Players[0].ConnID, e.game.Players[1].ConnID},
			})
		}
		r.release(e)
	}
	if len(stale) == 0 {
		return 0
	}

	r.mu.Lock()
	for _, s := range stale {
		delete(r.sessions, s.id)
		for _, c := range s.conns {
			if c == "" {
				continue
			}
			if r.connGame[c] == s.id {
				delete(r.connGame, c)
			}
			r.forgetNameLocked(c)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
	return len(stale)
}
