package agent

import "strings"

const basePrompt = `You're playing a classic snake game.
The objective of Snake is to control the movement of a snake on a game board, and eat food to grow longer.
The game ends when the snake collides with its own body.
You will be given a list of coordinates of the snake's body, starting from the head.
You'll also have the coordinates of the food and the size of the map.
Your task is to write "LEFT", "RIGHT", "UP" or "DOWN" to control the snake.
You should aim to collect the food item with the head of the snake, while avoiding going into your own body.
Collecting the food item will increase your score and length, which you should maximize.
You should try to collect the food as fast as possible, while avoiding going into your body.
For each move, explain why it might be a good or a bad move, then pick the best option.
Coordinates are in (x, y) format.
Moving up will cause the head of the snake to move to (x, y-1).
Moving down will cause the head of the snake to move to (x, y+1).
Moving left will cause the head of the snake to move to (x-1, y).
Moving right will cause the head of the snake to move to (x+1, y).
The map wraps around: leaving one edge brings the head back on the opposite edge.
If you try to move into a coordinate taken up by the snake's body, you will lose the game.
If you move the head of the snake into the coordinate of the food item, you will get a point.
`

const reasoningCue = "\nLet's break down each possible move:"

// actionNames is the order the choices are offered in; parsing uses game.Directions.
var actionNames = []string{"LEFT", "RIGHT", "UP", "DOWN"}

func decisionCue() string {
	return "\nTherefore out of " + strings.Join(actionNames, ", ") + ", the best option is to go"
}
