// Package web serves the scoreboard page.
package web

import (
	"log/slog"
	"net/http"
)

const scoreboardHTML = `<!DOCTYPE html>
<html>
<head>
    <title>War</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .board { max-width: 600px; margin: 0 auto; }
        .scores { display: flex; justify-content: center; margin: 20px 0; }
        .player { margin: 0 20px; padding: 20px; border: 2px solid #333; border-radius: 10px; min-width: 120px; text-align: center; }
        .player .score { font-size: 32px; }
        .controls { text-align: center; margin: 20px 0; }
        button { padding: 10px 20px; margin: 5px; font-size: 16px; }
        .status { padding: 10px; margin: 10px 0; background-color: #f0f0f0; border-radius: 5px; }
        table { width: 100%; border-collapse: collapse; }
        td, th { padding: 4px 8px; border-bottom: 1px solid #ddd; text-align: left; }
    </style>
</head>
<body>
    <div class="board">
        <h1>War</h1>
        <div class="status" id="status">Connecting...</div>

        <div class="scores">
            <div class="player">
                <div>Player 1</div>
                <div class="score" id="player_1">0</div>
            </div>
            <div class="player">
                <div>Player 2</div>
                <div class="score" id="player_2">0</div>
            </div>
        </div>

        <div class="controls">
            <button id="play">Play a game</button>
        </div>

        <table>
            <thead><tr><th>Result</th><th>Rounds</th><th>Wars</th></tr></thead>
            <tbody id="games"></tbody>
        </table>
    </div>

    <script>
        const names = { player_1: 'Player 1', player_2: 'Player 2', draw: 'Draw!' };
        const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
        const ws = new WebSocket(proto + location.host + '/api/ws');

        ws.onopen = function() {
            document.getElementById('status').textContent = 'Connected';
        };
        ws.onclose = function() {
            document.getElementById('status').textContent = 'Disconnected';
        };
        ws.onmessage = function(event) {
            const message = JSON.parse(event.data);
            switch (message.type) {
                case 'scores':
                    updateScores(message.data);
                    break;
                case 'game_result':
                    updateScores(message.data.scores);
                    addGame(message.data.game);
                    break;
            }
        };

        function updateScores(scores) {
            document.getElementById('player_1').textContent = scores.player_1;
            document.getElementById('player_2').textContent = scores.player_2;
        }

        function addGame(game) {
            const row = document.createElement('tr');
            [names[game.result], game.rounds, game.wars].forEach(function(v) {
                const cell = document.createElement('td');
                cell.textContent = v;
                row.appendChild(cell);
            });
            const body = document.getElementById('games');
            body.insertBefore(row, body.firstChild);
            while (body.children.length > 20) {
                body.removeChild(body.lastChild);
            }
        }

        document.getElementById('play').onclick = function() {
            fetch('/api/games', { method: 'POST' })
                .then(function(res) { return res.json(); })
                .then(function(body) {
                    document.getElementById('status').textContent =
                        body.error ? 'Error: ' + body.error : 'Last game: ' + names[body.result];
                });
        };
    </script>
</body>
</html>
`

// ServeHTML writes the scoreboard page.
func ServeHTML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(scoreboardHTML)); err != nil {
		slog.DebugContext(r.Context(), "failed to write scoreboard", slog.Any("error", err))
	}
}
